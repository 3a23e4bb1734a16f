package server

import (
	"net/http"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/models"
	"github.com/Danikxd/maturita-web/internal/reminder"
)

type remindersResponse struct {
	Reminders []models.Reminder `json:"reminders"`
	Stale     bool              `json:"stale"`
	Error     string            `json:"error,omitempty"`
}

type reminderResponse struct {
	Reminder models.Reminder `json:"reminder"`
	outcomeView
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	items, err := s.Reminders.Load(r.Context())
	if err != nil && apperr.KindOf(err) != apperr.KindNetworkUnavailable {
		writeErr(w, err)
		return
	}
	if items == nil {
		items = []models.Reminder{}
	}
	resp := remindersResponse{Reminders: items, Stale: err != nil}
	if err != nil {
		resp.Error = apperr.UserMessage(err)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	var in reminder.Input
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, err)
		return
	}
	rem, res, err := s.Reminders.Create(r.Context(), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reminderResponse{Reminder: rem, outcomeView: outcomeOf(res)})
}

func (s *Server) handleUpdateReminder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	var in reminder.Input
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, err)
		return
	}
	rem, res, err := s.Reminders.Update(r.Context(), id, in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reminderResponse{Reminder: rem, outcomeView: outcomeOf(res)})
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	res, err := s.Reminders.Delete(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcomeOf(res))
}

// --- reminder form ---

type formView struct {
	Phase  string         `json:"phase"`
	Mode   string         `json:"mode,omitempty"`
	EditID int64          `json:"edit_id,omitempty"`
	Input  reminder.Input `json:"input"`
	Error  string         `json:"error,omitempty"`
	Code   string         `json:"code,omitempty"`
}

func viewOfForm(st reminder.FormState) formView {
	v := formView{Phase: st.Phase.String(), Input: st.Input}
	switch m := st.Mode.(type) {
	case reminder.CreateMode:
		v.Mode = "create"
	case reminder.EditMode:
		v.Mode, v.EditID = "edit", m.ID
	}
	if st.Err != nil {
		v.Error, v.Code = apperr.UserMessage(st.Err), apperr.CodeOf(st.Err)
	}
	return v
}

type openFormRequest struct {
	// ID opens the form for editing that reminder; zero opens a create form.
	ID        int64 `json:"id"`
	ChannelID int64 `json:"channel_id"`
}

func (s *Server) handleFormState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, viewOfForm(s.Form.State()))
}

func (s *Server) handleFormOpen(w http.ResponseWriter, r *http.Request) {
	var req openFormRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	var err error
	if req.ID != 0 {
		err = s.Form.OpenEdit(req.ID)
	} else {
		err = s.Form.OpenCreate(req.ChannelID)
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOfForm(s.Form.State()))
}

func (s *Server) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	var in reminder.Input
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, err)
		return
	}
	rem, err := s.Form.Submit(r.Context(), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reminder": rem, "form": viewOfForm(s.Form.State())})
}

func (s *Server) handleFormClose(w http.ResponseWriter, _ *http.Request) {
	s.Form.Close()
	writeJSON(w, http.StatusOK, viewOfForm(s.Form.State()))
}
