package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/models"
	"github.com/Danikxd/maturita-web/internal/programme"
)

type channelsResponse struct {
	Channels []models.Channel `json:"channels"`
	Stale    bool             `json:"stale"`
	Error    string           `json:"error,omitempty"`
}

// handleListChannels reloads the directory. When the reload fails but a
// previous list exists, that list is served marked stale.
// ?order=selection (default, pinned first), id, or arrival.
func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	_, err := s.Channels.Load(r.Context())
	if err != nil && s.Channels.Len() == 0 {
		writeErr(w, err)
		return
	}

	var chans []models.Channel
	switch r.URL.Query().Get("order") {
	case "", "selection":
		chans = s.Channels.OrderedForSelection()
	case "id":
		chans = s.Channels.SortedByID()
	case "arrival":
		chans = s.Channels.All()
	default:
		writeErr(w, apperr.Validation(apperr.CodeInvalidRequest, "order must be selection, id or arrival"))
		return
	}
	if chans == nil {
		chans = []models.Channel{}
	}
	resp := channelsResponse{Channels: chans, Stale: err != nil}
	if err != nil {
		resp.Error = apperr.UserMessage(err)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetChannel(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	if s.Channels.Len() == 0 {
		_, _ = s.Channels.Load(r.Context())
	}
	c, err := s.Channels.Lookup(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type guideResponse struct {
	programme.Guide
	Error string `json:"error,omitempty"`
}

// handleGuide serves the grouped schedule of {date} (YYYY-MM-DD, local
// time). On failure it falls back to the guide already shown for that date,
// then to the persisted snapshot.
func (s *Server) handleGuide(w http.ResponseWriter, r *http.Request) {
	date, err := time.ParseInLocation(models.DateLayout, r.PathValue("date"), time.Local)
	if err != nil {
		writeErr(w, apperr.Validation(apperr.CodeInvalidDate, "date must be YYYY-MM-DD"))
		return
	}
	if s.Channels.Len() == 0 {
		_, _ = s.Channels.Load(r.Context())
	}

	guide, err := s.Guide.Load(r.Context(), date)
	if errors.Is(err, programme.ErrSuperseded) {
		writeJSON(w, http.StatusConflict, APIError{
			Status:  http.StatusConflict,
			Error:   http.StatusText(http.StatusConflict),
			Message: "A newer date was selected.",
			Detail:  err.Error(),
		})
		return
	}
	if err != nil {
		day := date.Format(models.DateLayout)
		if guide.Date != day {
			restored, ok := s.Guide.Restore(r.Context(), date)
			if !ok {
				writeErr(w, err)
				return
			}
			guide = restored
		}
		guide.Stale = true
		writeJSON(w, http.StatusOK, guideResponse{Guide: guide, Error: apperr.UserMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, guideResponse{Guide: guide})
}
