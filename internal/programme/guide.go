package programme

import (
	"fmt"
	"sort"

	"github.com/Danikxd/maturita-web/internal/models"
)

// Group is one channel's programmes, ascending by start.
type Group struct {
	ChannelID  int64              `json:"channel_id"`
	Channel    *models.Channel    `json:"channel,omitempty"`
	Programmes []models.Programme `json:"programmes"`
}

// Label names the group for display.
func (g Group) Label() string {
	if g.Channel != nil {
		return g.Channel.Label()
	}
	for _, p := range g.Programmes {
		if p.ChannelName != "" {
			return p.ChannelName
		}
	}
	return fmt.Sprintf("Channel %d", g.ChannelID)
}

// Guide is the grouped schedule of one date.
type Guide struct {
	Date   string  `json:"date"`
	Groups []Group `json:"groups"`
	// Stale is set when the guide comes from a persisted snapshot.
	Stale bool `json:"stale,omitempty"`
}

// Len returns the number of programmes across all groups.
func (g Guide) Len() int {
	n := 0
	for _, gr := range g.Groups {
		n += len(gr.Programmes)
	}
	return n
}

// Build partitions progs by channel and sorts each group by start.
//
// Groups follow ordered (the directory's selection order); channels missing
// from ordered follow, ascending by id. When ordered is non-empty,
// programmes on unknown channels are dropped. Programmes with end <= start
// are always dropped. A programme without channel_id is resolved through
// resolve by its channel_name, and dropped when that fails.
func Build(date string, progs []models.Programme, ordered []models.Channel, resolve func(name string) (models.Channel, bool)) Guide {
	known := make(map[int64]*models.Channel, len(ordered))
	for i := range ordered {
		known[ordered[i].ID] = &ordered[i]
	}

	byChannel := make(map[int64][]models.Programme)
	for _, p := range progs {
		if !p.Valid() {
			continue
		}
		if p.ChannelID == 0 {
			if p.ChannelName == "" || resolve == nil {
				continue
			}
			c, ok := resolve(p.ChannelName)
			if !ok {
				continue
			}
			p.ChannelID = c.ID
		}
		if len(known) > 0 && known[p.ChannelID] == nil {
			continue
		}
		byChannel[p.ChannelID] = append(byChannel[p.ChannelID], p)
	}

	guide := Guide{Date: date, Groups: make([]Group, 0, len(byChannel))}
	for _, c := range ordered {
		ps, ok := byChannel[c.ID]
		if !ok {
			continue
		}
		guide.Groups = append(guide.Groups, Group{ChannelID: c.ID, Channel: known[c.ID], Programmes: sortByStart(ps)})
		delete(byChannel, c.ID)
	}

	rest := make([]int64, 0, len(byChannel))
	for id := range byChannel {
		rest = append(rest, id)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	for _, id := range rest {
		guide.Groups = append(guide.Groups, Group{ChannelID: id, Programmes: sortByStart(byChannel[id])})
	}
	return guide
}

func sortByStart(ps []models.Programme) []models.Programme {
	sort.SliceStable(ps, func(i, j int) bool {
		if !ps[i].Start.Equal(ps[j].Start) {
			return ps[i].Start.Before(ps[j].Start)
		}
		return ps[i].End.Before(ps[j].End)
	})
	return ps
}
