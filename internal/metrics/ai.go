package metrics

import "time"

// AICallSucceeded records a model call whose reply passed schema validation
func AICallSucceeded(prompt, provider string, duration time.Duration, inputTokens, outputTokens int) {
	AIAPICalls.WithLabelValues(prompt, provider, "ok").Inc()
	AICallDuration.WithLabelValues(prompt, provider).Observe(duration.Seconds())
	AITokensTotal.WithLabelValues("input").Add(float64(inputTokens))
	AITokensTotal.WithLabelValues("output").Add(float64(outputTokens))
}

// AICallFailed records a model call that failed outright
func AICallFailed(prompt, provider string, duration time.Duration) {
	AIAPICalls.WithLabelValues(prompt, provider, "call_failed").Inc()
	AICallDuration.WithLabelValues(prompt, provider).Observe(duration.Seconds())
}

// AIOutputRejected records a model reply that failed parsing or validation
func AIOutputRejected(prompt, provider string, duration time.Duration) {
	AIAPICalls.WithLabelValues(prompt, provider, "bad_output").Inc()
	AICallDuration.WithLabelValues(prompt, provider).Observe(duration.Seconds())
}

// TurnFinished records the outcome of a chat turn
func TurnFinished(outcome string, duration time.Duration) {
	ChatTurnsTotal.WithLabelValues(outcome).Inc()
	if duration > 0 {
		ChatTurnDuration.Observe(duration.Seconds())
	}
}
