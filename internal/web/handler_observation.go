package web

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/vbonduro/plantcare/internal/domain"
	"github.com/vbonduro/plantcare/internal/service"
)

const maxPhotoSize = 50 * 1024 * 1024 // 50 MB

// allowedImageTypes is the set of MIME types accepted for uploaded photos.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniffing algorithm (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

type noteRequest struct {
	Note string `json:"note"`
}

type observationResponse struct {
	Plant       *domain.Plant       `json:"plant"`
	Observation *domain.Observation `json:"observation"`
}

// handleAddObservation accepts either a JSON note or a multipart form with an
// optional "image" file and an optional "note" field.
func (s *Server) handleAddObservation(w http.ResponseWriter, r *http.Request) {
	plantID := r.PathValue("id")

	var in service.ObservationInput
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
		if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
			s.badRequest(w, "failed to parse form")
			return
		}
		in.Note = r.FormValue("note")

		file, _, err := r.FormFile("image")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			s.badRequest(w, "invalid image")
			return
		default:
			defer closeWithLog(file, "upload file", s.logger)
			data, err := io.ReadAll(file)
			if err != nil {
				s.writeError(w, err, "failed to read file")
				return
			}
			mimeType, ok := allowedImageMIME(data)
			if !ok {
				s.badRequest(w, "unsupported image format")
				return
			}
			in.Data, in.MimeType = data, mimeType
		}
	} else {
		var req noteRequest
		if err := decodeJSON(w, r, &req); err != nil {
			s.badRequest(w, "invalid observation")
			return
		}
		in.Note = req.Note
	}

	p, obs, err := s.service.AddObservation(r.Context(), plantID, in)
	if err != nil {
		s.writeError(w, err, "failed to add observation")
		return
	}
	s.writeJSON(w, http.StatusCreated, observationResponse{Plant: p, Observation: obs})
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	data, mimeType, err := s.service.GetFile(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err, "failed to get file")
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=31536000, immutable")
	if _, err := w.Write(data); err != nil {
		s.logger.Error("write file failed", "file_id", r.PathValue("id"), "error", err)
	}
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
