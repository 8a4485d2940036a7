package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/jonathan/velvet-rope/internal/biometrics"
	"github.com/jonathan/velvet-rope/internal/ingestion"
	"github.com/jonathan/velvet-rope/internal/pipeline"
	"github.com/jonathan/velvet-rope/internal/types"
)

// maxUploadBytes bounds a CSV upload.
const maxUploadBytes = 10 << 20

// StateResponse is the pipeline snapshot plus the current stage's display label.
type StateResponse struct {
	types.PipelineState
	StageLabel string `json:"stage_label"`
}

// UploadResponse reports what an upload accepted.
type UploadResponse struct {
	Accepted int                  `json:"accepted"`
	Skipped  []ingestion.RowIssue `json:"skipped,omitempty"`
	Hash     string               `json:"hash"`
	State    StateResponse        `json:"state"`
}

// BiometricsRequest carries the frames captured while one pitch was delivered.
// Only timestamp and expressions are read; the derived fields are recomputed.
type BiometricsRequest struct {
	Snapshots []types.ExpressionSnapshot `json:"snapshots"`
}

// CapacityRequest sets the guest-list capacity. A nil capacity means the default.
type CapacityRequest struct {
	Capacity *int `json:"capacity"`
}

// VenueRequest configures the venue and DJ. Missing halves use the defaults.
type VenueRequest struct {
	Venue *types.VenueConfig `json:"venue"`
	Dj    *types.DjConfig    `json:"dj"`
}

func newStateResponse(state types.PipelineState) StateResponse {
	return StateResponse{PipelineState: state, StageLabel: state.CurrentStage.Label()}
}

// stageResponse answers a stage operation with the resulting state.
func (s *Server) stageResponse(w http.ResponseWriter, r *http.Request, state types.PipelineState, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newStateResponse(state))
}

// handleState returns the current pipeline snapshot.
func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, newStateResponse(s.orchestrator.State()))
}

// handleUpload accepts a CSV either as multipart field "file" or as the raw body.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	body, source, err := uploadBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer body.Close()

	upload, err := ingestion.ParseReader(body, source)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	state, err := s.orchestrator.Upload(r.Context(), upload.Attendees)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, UploadResponse{
		Accepted: len(state.RawAttendees),
		Skipped:  upload.Metadata.Skipped,
		Hash:     upload.Metadata.Hash,
		State:    newStateResponse(state),
	})
}

func uploadBody(r *http.Request) (io.ReadCloser, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, "request body", nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", &ErrValidation{Field: "file", Message: err.Error()}
	}
	return file, header.Filename, nil
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	state, err := s.orchestrator.GenerateProfiles(r.Context())
	s.stageResponse(w, r, state, err)
}

func (s *Server) handlePitches(w http.ResponseWriter, r *http.Request) {
	state, err := s.orchestrator.GeneratePitches(r.Context())
	s.stageResponse(w, r, state, err)
}

func (s *Server) handleBouncerStart(w http.ResponseWriter, r *http.Request) {
	state, err := s.orchestrator.StartBouncer(r.Context())
	s.stageResponse(w, r, state, err)
}

// handleBiometrics records one attendee's delivery.
func (s *Server) handleBiometrics(w http.ResponseWriter, r *http.Request) {
	var req BiometricsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	snapshots := make([]types.ExpressionSnapshot, 0, len(req.Snapshots))
	for _, snap := range req.Snapshots {
		snapshots = append(snapshots, biometrics.NewSnapshot(time.UnixMilli(snap.Timestamp), snap.Expressions))
	}

	result, err := s.orchestrator.RecordBiometrics(r.Context(), r.PathValue("attendee_id"), snapshots)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, result)
}

// handleBouncerRun vets every remaining attendee with the configured expression source.
// window_ms sets how long each pitch is sampled.
func (s *Server) handleBouncerRun(w http.ResponseWriter, r *http.Request) {
	opts := pipeline.BouncerOptions{}
	if raw := r.URL.Query().Get("window_ms"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			s.writeError(w, r, &ErrValidation{Field: "window_ms", Message: "must be a positive integer"})
			return
		}
		opts.Window = time.Duration(ms) * time.Millisecond
	}

	state, err := s.orchestrator.RunBouncer(r.Context(), s.source(), opts)
	s.stageResponse(w, r, state, err)
}

// handleGuestList ranks the vetted roster. The body is optional.
func (s *Server) handleGuestList(w http.ResponseWriter, r *http.Request) {
	var req CapacityRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	capacity := -1
	if req.Capacity != nil {
		capacity = *req.Capacity
	}

	state, err := s.orchestrator.BuildGuestList(r.Context(), capacity)
	s.stageResponse(w, r, state, err)
}

// handleCapacity recuts the existing guest list.
func (s *Server) handleCapacity(w http.ResponseWriter, r *http.Request) {
	var req CapacityRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Capacity == nil {
		s.writeError(w, r, &ErrValidation{Field: "capacity", Message: "is required"})
		return
	}

	state, err := s.orchestrator.SetCapacity(r.Context(), *req.Capacity)
	s.stageResponse(w, r, state, err)
}

// handleVenue stores the venue and DJ configuration.
func (s *Server) handleVenue(w http.ResponseWriter, r *http.Request) {
	var req VenueRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	venue := types.DefaultVenueConfig(s.orchestrator.State().AdmittedCount())
	if req.Venue != nil {
		venue = *req.Venue
	}
	dj := types.DefaultDjConfig()
	if req.Dj != nil {
		dj = *req.Dj
	}

	state, err := s.orchestrator.ConfigureVenue(r.Context(), venue, dj)
	s.stageResponse(w, r, state, err)
}

func (s *Server) handleParty(w http.ResponseWriter, r *http.Request) {
	state, err := s.orchestrator.RunParty(r.Context())
	s.stageResponse(w, r, state, err)
}

// handleReplay streams the stored simulation as one "round" event per round,
// then "complete". interval_ms overrides the pause between rounds.
func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	interval := s.replayInterval
	if raw := r.URL.Query().Get("interval_ms"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms < 0 {
			s.writeError(w, r, &ErrValidation{Field: "interval_ms", Message: "must be a non-negative integer"})
			return
		}
		interval = time.Duration(ms) * time.Millisecond
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	rounds := 0
	err = s.orchestrator.Replay(r.Context(), interval, func(_ context.Context, round types.SimulationRound) error {
		rounds++
		return sse.WriteEvent("round", round)
	})
	switch {
	case err == nil:
		sse.WriteComplete(rounds)
	case errors.Is(err, context.Canceled):
		// client went away
	case !sse.Started():
		s.writeError(w, r, err)
	default:
		sse.WriteError(err.Error())
	}
}

func (s *Server) handleRerun(w http.ResponseWriter, r *http.Request) {
	state, err := s.orchestrator.RerunFromVenue(r.Context())
	s.stageResponse(w, r, state, err)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	state, err := s.orchestrator.Reset(r.Context())
	s.stageResponse(w, r, state, err)
}

// handleListRuns returns archived parties, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.writeError(w, r, ErrRunsUnavailable)
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			s.writeError(w, r, &ErrValidation{Field: "limit", Message: "must be between 1 and 100"})
			return
		}
		limit = n
	}

	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &ErrValidation{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return nil
}

// decodeOptionalJSON is decodeJSON that accepts an empty body.
func decodeOptionalJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return &ErrValidation{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
}
