// Package server is the local JSON view API over the reminder core: the
// same session, directory, guide, reminder and admin components the CLI
// uses, exposed over HTTP.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Danikxd/maturita-web/internal/admin"
	"github.com/Danikxd/maturita-web/internal/directory"
	"github.com/Danikxd/maturita-web/internal/metrics"
	"github.com/Danikxd/maturita-web/internal/programme"
	"github.com/Danikxd/maturita-web/internal/reminder"
	"github.com/Danikxd/maturita-web/internal/session"
)

// Deps are the components the server exposes. All are required.
type Deps struct {
	Sessions  *session.Manager
	Channels  *directory.Directory
	Guide     *programme.Index
	Reminders *reminder.Manager
	Form      *reminder.Form
	Admin     *admin.Manager
}

// Server holds dependencies for the HTTP API.
type Server struct {
	Deps
	addr string
	mux  *http.ServeMux
}

// New creates a Server listening on addr and registers routes.
func New(deps Deps, addr string) *Server {
	srv := &Server{Deps: deps, addr: addr, mux: http.NewServeMux()}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	// Session
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	s.mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	s.mux.HandleFunc("GET /api/auth/session", s.handleSession)

	// Channels and guide
	s.mux.HandleFunc("GET /api/channels", s.handleListChannels)
	s.mux.HandleFunc("GET /api/channels/{id}", s.handleGetChannel)
	s.mux.HandleFunc("GET /api/programmes/{date}", s.handleGuide)

	// Reminders
	s.mux.HandleFunc("GET /api/reminders", s.handleListReminders)
	s.mux.HandleFunc("POST /api/reminders", s.handleCreateReminder)
	s.mux.HandleFunc("PATCH /api/reminders/{id}", s.handleUpdateReminder)
	s.mux.HandleFunc("DELETE /api/reminders/{id}", s.handleDeleteReminder)
	s.mux.HandleFunc("GET /api/reminders/form", s.handleFormState)
	s.mux.HandleFunc("POST /api/reminders/form", s.handleFormOpen)
	s.mux.HandleFunc("POST /api/reminders/form/submit", s.handleFormSubmit)
	s.mux.HandleFunc("DELETE /api/reminders/form", s.handleFormClose)

	// Admin
	s.mux.HandleFunc("GET /api/admin/verify", s.handleVerifyAdmin)
	s.mux.HandleFunc("GET /api/admin/channels", s.handleAdminChannels)
	s.mux.HandleFunc("POST /api/admin/channels", s.handleSaveChannel)
	s.mux.HandleFunc("PATCH /api/admin/channels/{id}", s.handleSaveChannel)
	s.mux.HandleFunc("DELETE /api/admin/channels/{id}", s.handleDeleteChannel)
	s.mux.HandleFunc("POST /api/admin/channels/import", s.handleImportPlaylist)
	s.mux.HandleFunc("POST /api/admin/logos", s.handleUploadLogo)

	s.mux.Handle("GET /metrics", metrics.Handler())

	// Docs
	s.mux.HandleFunc("GET /api/docs", handleSwaggerUI)
	s.mux.HandleFunc("GET /api/docs/openapi.yaml", handleOpenAPISpec)
}

// ServeHTTP implements http.Handler with the full middleware chain.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	withCORS(withRequestID(withLogging(s.mux))).ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the configured address.
// It blocks until the server is shut down or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.addr,
		Handler:      s,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	log.Printf("listening on %s", s.addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
