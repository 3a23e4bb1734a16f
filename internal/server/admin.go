package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/Danikxd/maturita-web/internal/admin"
	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/models"
)

const (
	maxLogoBytes     = 5 << 20
	maxPlaylistBytes = 10 << 20
)

type channelResponse struct {
	Channel models.Channel `json:"channel"`
	outcomeView
}

func (s *Server) handleVerifyAdmin(w http.ResponseWriter, r *http.Request) {
	ok, err := s.Admin.IsAdmin(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_admin": ok})
}

// handleAdminChannels lists channels ascending by id, the admin page order.
func (s *Server) handleAdminChannels(w http.ResponseWriter, r *http.Request) {
	ok, err := s.Admin.IsAdmin(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	if !ok {
		writeErr(w, apperr.Rejected(apperr.CodeNotAdmin, "administrator access is required", nil))
		return
	}
	if _, err := s.Channels.Load(r.Context()); err != nil && s.Channels.Len() == 0 {
		writeErr(w, err)
		return
	}
	chans := s.Channels.SortedByID()
	if chans == nil {
		chans = []models.Channel{}
	}
	writeJSON(w, http.StatusOK, chans)
}

// handleSaveChannel creates (POST) or updates (PATCH /{id}) a channel. The
// body is JSON, or multipart with channel_name, display_name, logo and an
// optional logo_file image uploaded before the write.
func (s *Server) handleSaveChannel(w http.ResponseWriter, r *http.Request) {
	cw, logo, err := readChannelWrite(w, r)
	if err != nil {
		writeErr(w, err)
		return
	}
	status := http.StatusCreated
	if r.PathValue("id") != "" {
		id, err := parseID(r, "id")
		if err != nil {
			writeErr(w, err)
			return
		}
		cw.ID = id
		status = http.StatusOK
	}
	c, res, err := s.Admin.SaveChannel(r.Context(), cw, logo)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, status, channelResponse{Channel: c, outcomeView: outcomeOf(res)})
}

func readChannelWrite(w http.ResponseWriter, r *http.Request) (admin.ChannelWrite, *admin.Logo, error) {
	var cw admin.ChannelWrite
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return cw, nil, decodeJSON(r, &cw)
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxLogoBytes+1<<20)
	if err := r.ParseMultipartForm(maxLogoBytes); err != nil {
		return cw, nil, apperr.Validation(apperr.CodeInvalidRequest, fmt.Sprintf("invalid form: %v", err))
	}
	cw.ChannelName = r.FormValue("channel_name")
	cw.DisplayName = r.FormValue("display_name")
	cw.LogoURL = r.FormValue("logo")

	f, hdr, err := r.FormFile("logo_file")
	if errors.Is(err, http.ErrMissingFile) {
		return cw, nil, nil
	}
	if err != nil {
		return cw, nil, apperr.Validation(apperr.CodeInvalidRequest, fmt.Sprintf("logo_file: %v", err))
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxLogoBytes+1))
	if err != nil {
		return cw, nil, fmt.Errorf("read logo: %w", err)
	}
	if len(data) > maxLogoBytes {
		return cw, nil, apperr.Validation(apperr.CodeInvalidRequest, "logo is larger than 5 MiB")
	}
	return cw, &admin.Logo{Filename: hdr.Filename, Data: data}, nil
}

func (s *Server) handleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeErr(w, err)
		return
	}
	res, err := s.Admin.DeleteChannel(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcomeOf(res))
}

// handleUploadLogo stores the raw request body as a logo and returns its URL.
func (s *Server) handleUploadLogo(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxLogoBytes+1))
	if err != nil {
		writeErr(w, fmt.Errorf("read logo: %w", err))
		return
	}
	if len(data) > maxLogoBytes {
		writeErr(w, apperr.Validation(apperr.CodeInvalidRequest, "logo is larger than 5 MiB"))
		return
	}
	url, err := s.Admin.UploadLogo(r.Context(), admin.Logo{Filename: r.URL.Query().Get("filename"), Data: data})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

// handleImportPlaylist reads an M3U playlist from the body.
func (s *Server) handleImportPlaylist(w http.ResponseWriter, r *http.Request) {
	body := io.LimitReader(r.Body, maxPlaylistBytes)
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "mpegurl") && !strings.HasPrefix(ct, "text/") && ct != "application/octet-stream" {
		writeErr(w, apperr.Validation(apperr.CodeInvalidRequest, "body must be an M3U playlist"))
		return
	}
	out, res, err := s.Admin.ImportPlaylist(r.Context(), body)
	if err != nil && out.Created == 0 {
		writeErr(w, err)
		return
	}
	resp := map[string]any{"created": out.Created, "skipped": out.Skipped, "outcome": res.Outcome.String()}
	if err != nil {
		resp["error"] = apperr.UserMessage(err)
	}
	writeJSON(w, http.StatusOK, resp)
}
