package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/panelvault/coverid/internal/decision"
	"github.com/panelvault/coverid/internal/storage"
)

type scanRequest struct {
	OCRText string `json:"ocr_text"`
}

type selectRequest struct {
	CandidateID int64 `json:"candidate_id" validate:"required,gt=0"`
}

type scanResponse struct {
	storage.SessionView
	Message string `json:"message,omitempty"`
}

func respond(view storage.SessionView) scanResponse {
	resp := scanResponse{SessionView: view}
	if view.State == decision.StateNoConfidentMatch {
		resp.Message = MessageNoMatch
	}
	return resp
}

// runScan scores raw into an idle session.
func (h *Handler) runScan(ctx context.Context, session *storage.ScanSession, raw string) error {
	res, err := h.identifier.IdentifyInto(ctx, session.Decision, raw)
	session.OCRText = raw
	session.Tokens = res.Tokens
	session.Query = res.Query
	session.Reason = string(res.Reason)
	return err
}

// startScan creates a session and scores raw into it.
func (h *Handler) startScan(w http.ResponseWriter, r *http.Request, raw string) {
	created := h.sessionStore.Create(h.identifier.Policy())
	view, err := h.sessionStore.Update(created.ID, func(s *storage.ScanSession) error {
		return h.runScan(r.Context(), s, raw)
	})
	if err != nil {
		h.writeFailure(w, created.ID, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, respond(view))
}

func (h *Handler) HandleCreateScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.startScan(w, r, req.OCRText)
}

func (h *Handler) HandleListScans(w http.ResponseWriter, _ *http.Request) {
	views := h.sessionStore.List()
	out := make([]scanResponse, 0, len(views))
	for _, v := range views {
		out = append(out, respond(v))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleGetScan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, ok := h.sessionStore.Get(id)
	if !ok {
		h.writeFailure(w, id, storage.ErrSessionNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, respond(view))
}

func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req selectRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.update(w, id, func(s *storage.ScanSession) error {
		return s.Decision.Select(req.CandidateID)
	})
}

func (h *Handler) HandleManualSearch(w http.ResponseWriter, r *http.Request) {
	h.update(w, chi.URLParam(r, "id"), func(s *storage.ScanSession) error {
		return s.Decision.RequestManualSearch()
	})
}

// HandleRescan scores new OCR text into an existing session. A session left
// idle by a failed catalog search can be rescanned directly.
func (h *Handler) HandleRescan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req scanRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.update(w, id, func(s *storage.ScanSession) error {
		if s.Decision.State() != decision.StateIdle {
			if err := s.Decision.Rescan(); err != nil {
				return err
			}
		}
		return h.runScan(r.Context(), s, req.OCRText)
	})
}

func (h *Handler) update(w http.ResponseWriter, id string, fn func(*storage.ScanSession) error) {
	view, err := h.sessionStore.Update(id, fn)
	if err != nil {
		h.writeFailure(w, id, err)
		return
	}
	h.writeJSON(w, http.StatusOK, respond(view))
}
