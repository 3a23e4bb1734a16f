package epg

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Danikxd/maturita-web/internal/models"
)

// wireProgramme tolerates numeric or string ids.
type wireProgramme struct {
	ID          json.RawMessage `json:"id"`
	ChannelID   int64           `json:"channel_id"`
	ChannelName string          `json:"channel_name"`
	Title       string          `json:"title"`
	Description *string         `json:"desc"`
	Start       time.Time       `json:"start"`
	End         time.Time       `json:"end"`
}

// ListProgrammes fetches the schedule for date's calendar day, formatted in
// date's own location.
func (c *Client) ListProgrammes(ctx context.Context, date time.Time) ([]models.Programme, error) {
	var raw []wireProgramme
	path := "/series/" + date.Format(models.DateLayout)
	if err := c.do(ctx, "list_programmes", http.MethodGet, path, "", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]models.Programme, 0, len(raw))
	for _, w := range raw {
		id := strings.Trim(string(w.ID), `"`)
		if id == "null" {
			id = ""
		}
		out = append(out, models.Programme{
			ID:          id,
			ChannelID:   w.ChannelID,
			ChannelName: w.ChannelName,
			Title:       w.Title,
			Description: w.Description,
			Start:       w.Start,
			End:         w.End,
		})
	}
	return out, nil
}
