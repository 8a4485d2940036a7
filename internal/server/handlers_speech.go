package server

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jonathan/velvet-rope/internal/speech"
)

// TTSRequest asks for a pitch to be read aloud.
type TTSRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// handleTTS streams MP3 audio for the given text.
func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req TTSRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeError(w, r, speech.ErrMissingText)
		return
	}
	if s.narrator == nil {
		s.writeError(w, r, speech.ErrMissingCredential)
		return
	}

	audio, err := s.narrator.Synthesize(r.Context(), req.Text, req.Voice)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer audio.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, audio); err != nil {
		s.logger.Warn("speech stream interrupted", slog.Any("error", err))
	}
}
