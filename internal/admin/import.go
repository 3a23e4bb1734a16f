package admin

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/Danikxd/maturita-web/internal/models"
	"github.com/Danikxd/maturita-web/internal/reconcile"
)

// ImportResult counts what an import did.
type ImportResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// ImportPlaylist creates a channel for every playlist entry whose name the
// directory does not know yet, then reconciles the directory once.
// Channels created before a failure stay created. Cancelling ctx stops the
// import between entries; a create already sent completes.
func (m *Manager) ImportPlaylist(ctx context.Context, r io.Reader) (ImportResult, reconcile.Result, error) {
	entries, err := ParsePlaylist(r)
	if err != nil {
		return ImportResult{}, reconcile.Result{Outcome: reconcile.RolledBack}, fmt.Errorf("parse playlist: %w", err)
	}
	s, err := m.requireAdmin(ctx)
	if err != nil {
		return ImportResult{}, reconcile.Result{Outcome: reconcile.RolledBack}, err
	}

	var out ImportResult
	seen := make(map[string]bool, len(entries))
	wctx, cancel := m.detach(ctx)
	defer cancel()
	res, err := m.ctrl.Batch(wctx, func(wctx context.Context) ([]models.Channel, error) {
		var created []models.Channel
		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return created, fmt.Errorf("import cancelled: %w", err)
			}
			if _, known := m.dir.LookupName(e.ChannelName); known || seen[e.ChannelName] {
				out.Skipped++
				continue
			}
			seen[e.ChannelName] = true
			c, err := m.svc.CreateChannel(wctx, s.AccessToken, e.Write().input())
			if err != nil {
				return created, fmt.Errorf("create %q: %w", e.ChannelName, err)
			}
			created = append(created, c)
			out.Created++
		}
		return created, nil
	})
	if err != nil {
		log.Printf("admin: import stopped after %d channels: %v", out.Created, err)
	}
	return out, res, err
}
