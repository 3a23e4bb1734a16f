package models

// Channel is a TV channel record from the channel directory.
// Created and deleted by administrators only; read by everyone.
type Channel struct {
	ID          int64   `json:"id"`
	ChannelName string  `json:"channel_name"`
	DisplayName *string `json:"display_name,omitempty"`
	LogoURL     *string `json:"logo,omitempty"`
}

// Label returns the display name when set, else the channel name.
func (c Channel) Label() string {
	if c.DisplayName != nil && *c.DisplayName != "" {
		return *c.DisplayName
	}
	return c.ChannelName
}

// ChannelInput is the body of POST /tv_channels and PATCH /tv_channels/{id}.
// Pointer fields: nil = don't change, non-nil = set.
type ChannelInput struct {
	ChannelName *string `json:"channel_name,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	LogoURL     *string `json:"logo,omitempty"`
}
