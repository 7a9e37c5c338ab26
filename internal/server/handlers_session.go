package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/theseusxyz/theseus/internal/config"
	"github.com/theseusxyz/theseus/internal/eventlog"
)

// CreateSessionRequest is the request body for POST /session.
type CreateSessionRequest struct {
	Name   string               `json:"name"`
	Path   string               `json:"path"`
	Config config.SessionConfig `json:"config"`
}

// createSession handles POST /session (spec §6.1 create).
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	if req.Name == "" || req.Path == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "name and path are required")
		return
	}

	sc := req.Config
	if err := s.service.Create(r.Context(), req.Name, req.Path, &sc); err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// StartSessionRequest is the request body for POST /session/{name}/start.
type StartSessionRequest struct {
	APIKey string `json:"api_key,omitempty"`
}

// startSession handles POST /session/{name}/start (spec §6.1 start).
func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req StartSessionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := s.service.Start(r.Context(), name, req.APIKey); err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeSuccess(w)
}

// pauseSession handles POST /session/{name}/pause.
func (s *Server) pauseSession(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.service.Pause(name); err != nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
		return
	}
	writeSuccess(w)
}

// resumeSession handles POST /session/{name}/resume.
func (s *Server) resumeSession(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.service.Resume(name); err != nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
		return
	}
	writeSuccess(w)
}

// terminateSession handles POST /session/{name}/terminate (spec §6.1
// terminate: request termination and block until terminated).
func (s *Server) terminateSession(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.service.Terminate(r.Context(), name); err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeSuccess(w)
}

// resetSession handles POST /session/{name}/reset.
func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.service.Reset(r.Context(), name); err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeSuccess(w)
}

// RevertSessionRequest is the request body for POST /session/{name}/revert.
type RevertSessionRequest struct {
	CheckpointID string `json:"checkpoint_id"`
}

// revertSession handles POST /session/{name}/revert (spec §6.1 revert).
func (s *Server) revertSession(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req RevertSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	if err := s.service.Revert(r.Context(), name, req.CheckpointID); err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeSuccess(w)
}

// deleteSession handles DELETE /session/{name} (spec §6.1 delete).
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.service.Delete(r.Context(), name); err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeSuccess(w)
}

// postEvent handles POST /session/{name}/event (spec §6.1 event), the
// entry point for externally submitted events like GitResolve and
// GitMerge.
func (s *Server) postEvent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var ev eventlog.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	if err := s.service.Event(r.Context(), name, ev); err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeSuccess(w)
}

// getEvents handles GET /session/{name}/events (spec §6.1 events).
func (s *Server) getEvents(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	events, err := s.service.Events(name)
	if err != nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// getDiff handles GET /session/{name}/diff?src=...&dst=... (spec §6.1
// diff).
func (s *Server) getDiff(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	src := r.URL.Query().Get("src")
	dst := r.URL.Query().Get("dst")

	diffs, err := s.service.Diff(r.Context(), name, src, dst)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, diffs)
}

// ResponseRequest is the request body for POST /session/{name}/response.
type ResponseRequest struct {
	Text string `json:"text"`
}

// postResponse handles POST /session/{name}/response (spec §6.1
// response), feeding the user environment's input provider.
func (s *Server) postResponse(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req ResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	if err := s.service.Response(name, req.Text); err != nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
		return
	}
	writeSuccess(w)
}

// getStatus handles GET /session/{name}/status (spec §6.1 status).
func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	st, err := s.service.Status(name)
	if err != nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(st)})
}

// getConfig handles GET /session/{name}/config (spec §6.1 config).
func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sc, err := s.service.Config(name)
	if err != nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sc)
}
