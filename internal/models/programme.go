package models

import "time"

// Programme is a single schedule entry. Read-only from the client's side.
type Programme struct {
	ID          string    `json:"id"`
	ChannelID   int64     `json:"channel_id"`
	ChannelName string    `json:"channel_name,omitempty"` // some feeds only carry the name
	Title       string    `json:"title"`
	Description *string   `json:"desc,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// Valid reports whether the programme ends after it starts.
func (p Programme) Valid() bool {
	return p.End.After(p.Start)
}
