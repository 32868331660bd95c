package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"wallpaper/internal/orchestrator"
)

const defaultHeartbeat = 15 * time.Second

// Events streams a state snapshot after every transition as Server-Sent
// Events. The first event carries the current state.
func (a *App) Events(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// The stream outlives the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	updates, cancel, err := a.Wallpapers.Subscribe(r.Context())
	if err != nil {
		a.controlError(w, r, err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		a.Logger.Warn().Err(err).Msg("handlers: event stream cannot flush")
		return
	}

	interval := a.Heartbeat
	if interval <= 0 {
		interval = defaultHeartbeat
	}
	heartbeat := time.NewTicker(interval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := writeEvent(w, snap); err != nil {
				return
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, snap orchestrator.Snapshot) error {
	data, err := json.Marshal(newStateView(snap))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: state\ndata: %s\n\n", snap.Version, data)
	return err
}
