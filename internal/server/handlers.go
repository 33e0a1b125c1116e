package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ahmadbhutta823/text-extract-from-images/internal/domain"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/observability"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/storage"
)

const timeFormat = "2006-01-02T15:04:05Z07:00"

// RunStore serves recorded run history.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]domain.RunStats, error)
	GetRun(ctx context.Context, runID string) (*domain.RunStats, error)
	RunImages(ctx context.Context, runID string) ([]storage.ImageRecord, error)
}

// RunHandler handles run history requests.
type RunHandler struct {
	store  RunStore
	logger *observability.Logger
}

// NewRunHandler creates a new run handler.
func NewRunHandler(store RunStore, logger *observability.Logger) *RunHandler {
	return &RunHandler{
		store:  store,
		logger: logger.WithComponent("server"),
	}
}

// RunDTO represents one run in API responses.
type RunDTO struct {
	ID          string `json:"id"`
	Model       string `json:"model"`
	StartedAt   string `json:"startedAt"`
	CompletedAt string `json:"completedAt"`
	Total       int    `json:"total"`
	Succeeded   int    `json:"succeeded"`
	Failed      int    `json:"failed"`
	ReportPath  string `json:"reportPath"`
	SummaryPath string `json:"summaryPath"`
}

// RunImageDTO represents one per-image row of a run.
type RunImageDTO struct {
	Position   int    `json:"position"`
	Label      string `json:"label"`
	SourcePath string `json:"sourcePath"`
	Failed     bool   `json:"failed"`
	Words      int    `json:"words"`
	Chars      int    `json:"chars"`
	Preview    string `json:"preview"`
	ElapsedMS  int64  `json:"elapsedMs"`
}

// RunDetailDTO is a run with its per-image rows.
type RunDetailDTO struct {
	RunDTO
	Images []RunImageDTO `json:"images"`
}

func runDTO(s domain.RunStats) RunDTO {
	return RunDTO{
		ID:          s.RunID,
		Model:       s.Model,
		StartedAt:   s.StartedAt.Format(timeFormat),
		CompletedAt: s.CompletedAt.Format(timeFormat),
		Total:       s.Total,
		Succeeded:   s.Succeeded,
		Failed:      s.Failed,
		ReportPath:  s.ReportPath,
		SummaryPath: s.SummaryPath,
	}
}

// List handles GET /api/v1/runs.
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "invalid limit", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	runs, err := h.store.ListRuns(ctx, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list runs")
		h.writeError(w, http.StatusInternalServerError, "failed to list runs", err.Error())
		return
	}

	resp := make([]RunDTO, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, runDTO(run))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Get handles GET /api/v1/runs/{runID}.
func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runID := chi.URLParam(r, "runID")

	run, err := h.store.GetRun(ctx, runID)
	if errors.Is(err, storage.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "run not found", "")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get run")
		h.writeError(w, http.StatusInternalServerError, "failed to get run", err.Error())
		return
	}

	images, err := h.store.RunImages(ctx, runID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get run images")
		h.writeError(w, http.StatusInternalServerError, "failed to get run images", err.Error())
		return
	}

	resp := RunDetailDTO{
		RunDTO: runDTO(*run),
		Images: make([]RunImageDTO, 0, len(images)),
	}
	for _, img := range images {
		resp.Images = append(resp.Images, RunImageDTO{
			Position:   img.Position,
			Label:      img.Label,
			SourcePath: img.SourcePath,
			Failed:     img.Failed,
			Words:      img.Words,
			Chars:      img.Chars,
			Preview:    img.Preview,
			ElapsedMS:  img.ElapsedMS,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Report handles GET /api/v1/runs/{runID}/report. It streams the report
// artifact of the run as plain text.
func (h *RunHandler) Report(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runID := chi.URLParam(r, "runID")

	run, err := h.store.GetRun(ctx, runID)
	if errors.Is(err, storage.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "run not found", "")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get run")
		h.writeError(w, http.StatusInternalServerError, "failed to get run", err.Error())
		return
	}

	content, err := os.ReadFile(run.ReportPath)
	if os.IsNotExist(err) {
		h.writeError(w, http.StatusNotFound, "report file not found", run.ReportPath)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read report file")
		h.writeError(w, http.StatusInternalServerError, "failed to read report file", err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(content)
}

func (h *RunHandler) writeError(w http.ResponseWriter, status int, message, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	json.NewEncoder(w).Encode(resp)
}
