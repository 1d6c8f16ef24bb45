package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/panelvault/coverid/internal/catalog"
	"github.com/panelvault/coverid/internal/decision"
	"github.com/panelvault/coverid/internal/identify"
	"github.com/panelvault/coverid/internal/ocr"
	"github.com/panelvault/coverid/internal/storage"
)

// User-facing messages for the two empty outcomes. They must stay distinct.
const (
	MessageNoMatch            = "No comic matched. Try manual search."
	MessageCatalogUnavailable = "Service issue while searching the catalog. Try again."
)

// Error codes returned in the "error" field.
const (
	codeBadRequest         = "bad_request"
	codeNotFound           = "not_found"
	codeInvalidTransition  = "invalid_transition"
	codeUnknownCandidate   = "unknown_candidate"
	codeCatalogUnavailable = "catalog_unavailable"
	codeOCRFailed          = "ocr_failed"
	codeInternal           = "internal_error"
)

type Handler struct {
	sessionStore *storage.SessionStore
	identifier   *identify.Service
	ocr          *ocr.Service
	validate     *validator.Validate
}

// New wires the handler. ocrService may be nil, which disables image uploads.
func New(store *storage.SessionStore, identifier *identify.Service, ocrService *ocr.Service) *Handler {
	return &Handler{
		sessionStore: store,
		identifier:   identifier,
		ocr:          ocrService,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Routes builds the API router. allowedOrigins configures CORS.
func (h *Handler) Routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthcheck", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("unable to write healthcheck")
		}
	})

	r.Route("/api/scans", func(r chi.Router) {
		r.Get("/", h.HandleListScans)
		r.Post("/", h.HandleCreateScan)
		r.Post("/upload", h.HandleUpload)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGetScan)
			r.Post("/select", h.HandleSelect)
			r.Post("/manual-search", h.HandleManualSearch)
			r.Post("/rescan", h.HandleRescan)
		})
	})

	return r
}

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("unable to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, code int, errCode, message string) {
	h.writeJSON(w, code, errorResponse{Error: errCode, Message: message})
}

// writeFailure maps pipeline and session errors to responses.
func (h *Handler) writeFailure(w http.ResponseWriter, sessionID string, err error) {
	resp := errorResponse{Error: codeInternal, Message: err.Error(), SessionID: sessionID}
	code := http.StatusInternalServerError

	switch {
	case errors.Is(err, catalog.ErrCatalogUnavailable):
		code, resp.Error, resp.Message = http.StatusServiceUnavailable, codeCatalogUnavailable, MessageCatalogUnavailable
	case errors.Is(err, storage.ErrSessionNotFound):
		code, resp.Error = http.StatusNotFound, codeNotFound
	case errors.Is(err, decision.ErrUnknownCandidate):
		code, resp.Error = http.StatusUnprocessableEntity, codeUnknownCandidate
	case errors.Is(err, decision.ErrInvalidTransition):
		code, resp.Error = http.StatusConflict, codeInvalidTransition
	case errors.Is(err, ocr.ErrUnsupportedProvider):
		code, resp.Error = http.StatusBadRequest, codeBadRequest
	}

	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Str("session_id", sessionID).Msg("scan request failed")
	} else {
		log.Debug().Err(err).Str("session_id", sessionID).Msg("scan request rejected")
	}
	h.writeJSON(w, code, resp)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			h.writeError(w, http.StatusBadRequest, codeBadRequest, verrs[0].Field()+" is "+verrs[0].Tag())
			return false
		}
		h.writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return false
	}
	return true
}
