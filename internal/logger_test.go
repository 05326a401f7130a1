package internal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "production", "info").Info("turn rendered", "turn_id", "abc")
	assert.Contains(t, buf.String(), `"msg":"turn rendered"`)

	buf.Reset()
	NewLogger(&buf, "development", "warn").Info("hidden")
	assert.Empty(t, buf.String())
}
