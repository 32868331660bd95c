package handlers

import (
	"net/http"
	"time"

	"wallpaper/internal/domain"
	"wallpaper/internal/history"
	"wallpaper/internal/orchestrator"
)

type errorView struct {
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

type historyView struct {
	ID           string    `json:"id"`
	Prompt       string    `json:"prompt"`
	CreatedAt    time.Time `json:"created_at"`
	ThumbnailURL string    `json:"thumbnail_url"`
}

type currentView struct {
	ID          string    `json:"id"`
	Prompt      string    `json:"prompt"`
	CreatedAt   time.Time `json:"created_at"`
	ImageURL    string    `json:"image_url"`
	DownloadURL string    `json:"download_url"`
}

type stateView struct {
	Version          uint64                         `json:"version"`
	Current          *currentView                   `json:"current"`
	IsLoading        bool                           `json:"is_loading"`
	IsPaused         bool                           `json:"is_paused"`
	CountdownSeconds int                            `json:"countdown_seconds"`
	Error            *errorView                     `json:"error"`
	Selection        domain.GenerationRequestParams `json:"selection"`
	History          []historyView                  `json:"history"`
}

func historyImageURL(id string) string {
	return "/v1/history/" + id + "/image"
}

func newStateView(s orchestrator.Snapshot) stateView {
	v := stateView{
		Version:          s.Version,
		IsLoading:        s.IsLoading,
		IsPaused:         s.IsPaused,
		CountdownSeconds: s.CountdownSeconds,
		Selection:        s.Selection,
		History:          make([]historyView, 0, len(s.History)),
	}
	if s.Current != nil {
		v.Current = &currentView{
			ID:          s.Current.ID,
			Prompt:      s.Current.Result.PromptText,
			CreatedAt:   s.Current.CreatedAt,
			ImageURL:    historyImageURL(s.Current.ID),
			DownloadURL: "/v1/wallpaper/download",
		}
	}
	if s.Error != "" {
		v.Error = &errorView{Kind: s.ErrorKind, Message: s.Error}
	}
	for _, e := range s.History {
		v.History = append(v.History, newHistoryView(e))
	}
	return v
}

func newHistoryView(e history.Entry) historyView {
	return historyView{
		ID:           e.ID,
		Prompt:       e.Result.PromptText,
		CreatedAt:    e.CreatedAt,
		ThumbnailURL: historyImageURL(e.ID),
	}
}

// State returns the full observable state.
func (a *App) State(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, newStateView(a.Wallpapers.Snapshot()))
}
