package reminder

import (
	"strings"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/models"
)

// Input is what the user submits for a create or edit.
type Input struct {
	ChannelID    int64  `json:"channel_id"`
	Title        string `json:"title"`
	NotifyBefore int    `json:"notify_before"`
}

// InputFrom prefills an Input from an existing reminder.
func InputFrom(r models.Reminder) Input {
	return Input{ChannelID: r.ChannelID, Title: r.Title, NotifyBefore: r.NotifyBefore}
}

// Validate checks the fields that need nothing but in itself: a non-empty
// title and a lead time within bounds. The channel is resolved separately.
func (in Input) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return apperr.Validation(apperr.CodeEmptyTitle, "title must not be empty")
	}
	if in.NotifyBefore < models.MinNotifyBefore || in.NotifyBefore > models.MaxNotifyBefore {
		return apperr.Validation(apperr.CodeNotifyBeforeRange, "notify_before must be between 1 and 14")
	}
	return nil
}

func (in Input) wire() models.ReminderInput {
	return models.ReminderInput{
		ChannelID:    in.ChannelID,
		Title:        strings.TrimSpace(in.Title),
		NotifyBefore: in.NotifyBefore,
	}
}
