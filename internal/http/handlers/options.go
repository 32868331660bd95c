package handlers

import (
	"net/http"

	"wallpaper/internal/domain"
	"wallpaper/internal/orchestrator"
)

type detailLevelView struct {
	Level int    `json:"level"`
	Label string `json:"label"`
}

type optionsView struct {
	Categories    []string                       `json:"categories"`
	Sizes         []domain.Size                  `json:"sizes"`
	ArtStyles     []string                       `json:"art_styles"`
	ColorPalettes []string                       `json:"color_palettes"`
	DetailLevels  []detailLevelView              `json:"detail_levels"`
	Defaults      domain.GenerationRequestParams `json:"defaults"`
	CycleSeconds  int                            `json:"cycle_seconds"`
}

// Options lists the values accepted by the selection controls.
func (a *App) Options(w http.ResponseWriter, r *http.Request) {
	v := optionsView{
		Categories:    domain.Categories,
		Sizes:         domain.Sizes,
		ArtStyles:     domain.ArtStyles,
		ColorPalettes: domain.ColorPalettes,
		Defaults:      domain.DefaultParams(),
		CycleSeconds:  orchestrator.CycleSeconds,
	}
	for level := domain.MinDetailLevel; level <= domain.MaxDetailLevel; level++ {
		v.DetailLevels = append(v.DetailLevels, detailLevelView{Level: level, Label: domain.DetailLabel(level)})
	}
	a.json(w, http.StatusOK, v)
}
