package models

// Reminder is a user's registered intent to be notified NotifyBefore days
// ahead of a programme on ChannelID. The server owns ID and UserID.
type Reminder struct {
	ID           int64  `json:"id"`
	UserID       string `json:"user_id"`
	ChannelID    int64  `json:"channel_id"`
	Title        string `json:"title"`
	NotifyBefore int    `json:"notify_before"`
}

// ReminderInput is the body of POST /notifications and PATCH /notifications/{id}.
type ReminderInput struct {
	ChannelID    int64  `json:"channel_id"`
	Title        string `json:"title"`
	NotifyBefore int    `json:"notify_before"`
}
