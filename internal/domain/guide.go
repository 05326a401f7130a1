package domain

import (
	"strconv"
	"time"
)

// MinVideoQueryLength is the minimum number of characters in a video search.
const MinVideoQueryLength = 3

// VideoResult is a simulated video-guide search hit.
type VideoResult struct {
	Query        string `json:"query"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnailUrl"`
	VideoURL     string `json:"videoUrl"`
	Hint         string `json:"hint"`
}

// Notification limits and fixed texts.
const (
	MaxNotificationMessageLength = 200
	DefaultNotificationMessage   = "I'm in an emergency and need help immediately!"
	LocationUnavailable          = "Location not available."
)

// Location is a geographic coordinate reported by the browser.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// MapsURL returns a map link for the location.
func (l Location) MapsURL() string {
	return "https://www.google.com/maps?q=" +
		strconv.FormatFloat(l.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(l.Longitude, 'f', -1, 64)
}

// Describe returns the location sentence included in the notification.
func (l Location) Describe() string {
	return "My current location is: " + l.MapsURL()
}

// Valid reports whether the coordinates are within range.
func (l Location) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

// NotificationRequest is a request to alert emergency contacts.
// LocationError carries the browser's reason when Location is nil.
type NotificationRequest struct {
	Message       string    `json:"message"`
	Location      *Location `json:"location,omitempty"`
	LocationError string    `json:"locationError,omitempty"`
}

// Notification is the payload that was "sent".
type Notification struct {
	Message     string    `json:"message"`
	Location    string    `json:"location"`
	Coordinates *Location `json:"coordinates,omitempty"`
	Contacts    []string  `json:"contacts"`
	SentAt      time.Time `json:"sentAt"`
}

// HasLocation reports whether coordinates were attached.
func (n *Notification) HasLocation() bool {
	return n.Coordinates != nil
}
