package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/panelvault/coverid/internal/ocr"
)

// maxUploadSize bounds an uploaded cover photo.
const maxUploadSize = 10 * 1024 * 1024

// HandleUpload runs OCR on an uploaded cover photo and scores the text as a new
// scan. The form field is "file"; "provider" and "model" are optional.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if h.ocr == nil {
		h.writeError(w, http.StatusNotImplemented, codeBadRequest, "image uploads are not enabled")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024*1024)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, codeBadRequest, "failed to read file: "+err.Error())
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, codeBadRequest, "failed to read file contents: "+err.Error())
		return
	}
	if len(image) > maxUploadSize {
		h.writeError(w, http.StatusRequestEntityTooLarge, codeBadRequest, "file too large (max 10MB)")
		return
	}

	text, err := h.ocr.ExtractText(r.Context(), image, header.Header.Get("Content-Type"), r.FormValue("provider"), r.FormValue("model"))
	if err != nil {
		resp := errorResponse{Error: codeOCRFailed, Message: err.Error()}
		code := http.StatusBadGateway
		if errors.Is(err, ocr.ErrUnsupportedProvider) {
			resp.Error, code = codeBadRequest, http.StatusBadRequest
		}
		h.writeJSON(w, code, resp)
		return
	}

	h.startScan(w, r, text)
}
