package models

// DefaultPinnedChannelID is the channel forced to the front of every
// channel-selection list unless configured otherwise.
const DefaultPinnedChannelID int64 = 186

// Lead time bounds for Reminder.NotifyBefore, in days (inclusive).
const (
	MinNotifyBefore = 1
	MaxNotifyBefore = 14
)

// DateLayout is the wire format of a guide date (GET /series/{date}).
const DateLayout = "2006-01-02"
