package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"wallpaper/internal/filename"
	"wallpaper/internal/history"
	"wallpaper/internal/orchestrator"
)

func (a *App) writeImage(w http.ResponseWriter, r *http.Request, e history.Entry, cache string) {
	etag := strconv.Quote(e.ID)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", cache)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", e.Result.Image.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(e.Result.Image.Data)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(e.Result.Image.Data)
	}
}

func (a *App) current(w http.ResponseWriter) (history.Entry, bool) {
	snap := a.Wallpapers.Snapshot()
	if snap.Current == nil || snap.Current.Result.Image.IsZero() {
		a.error(w, http.StatusNotFound, "not_found", "no wallpaper generated yet")
		return history.Entry{}, false
	}
	return *snap.Current, true
}

// CurrentImage serves the displayed wallpaper.
func (a *App) CurrentImage(w http.ResponseWriter, r *http.Request) {
	e, ok := a.current(w)
	if !ok {
		return
	}
	a.writeImage(w, r, e, "no-cache")
}

// HistoryImage serves the image of one history entry.
func (a *App) HistoryImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, e := range a.Wallpapers.Snapshot().History {
		if e.ID == id {
			a.writeImage(w, r, e, "private, max-age=3600, immutable")
			return
		}
	}
	a.error(w, http.StatusNotFound, "not_found", "history entry not found")
}

// Download serves the displayed wallpaper as an attachment. Like the other
// controls it is unavailable while a cycle is in flight.
func (a *App) Download(w http.ResponseWriter, r *http.Request) {
	if a.Wallpapers.Snapshot().IsLoading {
		a.controlError(w, r, orchestrator.ErrLoading)
		return
	}
	e, ok := a.current(w)
	if !ok {
		return
	}
	name := filename.Build(e.Result.PromptText, a.Now())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Type", e.Result.Image.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(e.Result.Image.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(e.Result.Image.Data)
}
