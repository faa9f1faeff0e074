package models

import "time"

// LinkStatus is the last known reachability of a tracked link
type LinkStatus int

const (
	StatusUnknown LinkStatus = iota
	StatusReachable
	StatusUnreachable
)

// String returns the string representation of the status
func (s LinkStatus) String() string {
	switch s {
	case StatusReachable:
		return "reachable"
	case StatusUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in JSON payloads
func (s LinkStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name; unknown names map to StatusUnknown
func (s *LinkStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "reachable":
		*s = StatusReachable
	case "unreachable":
		*s = StatusUnreachable
	default:
		*s = StatusUnknown
	}
	return nil
}

// Emoji returns the marker used in reports and command replies
func (s LinkStatus) Emoji() string {
	switch s {
	case StatusReachable:
		return "🟢"
	case StatusUnreachable:
		return "🔴"
	default:
		return "⚪"
	}
}

// TrackedLink representa un enlace autorizado publicado en un canal
type TrackedLink struct {
	URL           string     `bson:"url" json:"url"`
	ChatID        string     `bson:"chatId" json:"chatId"`
	PosterID      string     `bson:"posterId" json:"posterId"`
	MessageID     string     `bson:"messageId" json:"messageId"`
	PostedAt      time.Time  `bson:"postedAt" json:"postedAt"`
	LastStatus    LinkStatus `bson:"lastStatus" json:"lastStatus"`
	LastCheckedAt time.Time  `bson:"lastCheckedAt,omitempty" json:"lastCheckedAt,omitempty"`
}

// Age returns how long ago the link was posted
func (l TrackedLink) Age(now time.Time) time.Duration {
	return now.Sub(l.PostedAt)
}
