package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"wallpaper/internal/domain"
	"wallpaper/internal/infra"
	"wallpaper/internal/orchestrator"
)

// Controller is the orchestrator surface the handlers drive.
type Controller interface {
	Snapshot() orchestrator.Snapshot
	TogglePause(ctx context.Context) (orchestrator.Snapshot, error)
	Regenerate(ctx context.Context) (orchestrator.Snapshot, error)
	SetSelection(ctx context.Context, patch domain.SelectionPatch) (orchestrator.Snapshot, error)
	SelectHistory(ctx context.Context, id string) (orchestrator.Snapshot, error)
	Subscribe(ctx context.Context) (<-chan orchestrator.Snapshot, func(), error)
}

type App struct {
	Wallpapers Controller
	Logger     *infra.Logger
	Now        func() time.Time
	// Heartbeat is the idle interval between SSE keep-alive comments.
	Heartbeat time.Duration
}

func NewApp(c Controller, logger *infra.Logger) *App {
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &App{Wallpapers: c, Logger: logger, Now: time.Now, Heartbeat: defaultHeartbeat}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{"code": errCode, "message": message},
	})
}

// controlError answers a rejected control.
func (a *App) controlError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrLoading):
		a.error(w, http.StatusConflict, "loading", "a wallpaper is being generated, try again when it finishes")
	case errors.Is(err, orchestrator.ErrEntryNotFound):
		a.error(w, http.StatusNotFound, "not_found", "history entry not found")
	case errors.Is(err, domain.ErrInvalidSelection):
		a.error(w, http.StatusBadRequest, "invalid_selection", err.Error())
	case errors.Is(err, orchestrator.ErrStopped):
		a.error(w, http.StatusServiceUnavailable, "unavailable", "generator is shutting down")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		a.error(w, http.StatusServiceUnavailable, "unavailable", "request cancelled")
	default:
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("handlers: control failed")
		a.error(w, http.StatusInternalServerError, "internal", "control failed")
	}
}
