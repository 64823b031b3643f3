package handlers

import (
	"net/http"

	"dreamscape/internal/imagegen"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"catalog_entries": a.Service.Matcher().Catalog().Len(),
	})
}

type optionsResponse struct {
	Models     []imagegen.Option `json:"models"`
	Sizes      []imagegen.Option `json:"sizes"`
	MaxImages  int               `json:"max_images"`
	Categories []string          `json:"categories"`
}

// Options lists what the settings panel may offer.
func (a *App) Options(w http.ResponseWriter, r *http.Request) {
	cats := a.Service.Matcher().Catalog().Categories()
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	a.json(w, http.StatusOK, optionsResponse{
		Models:     imagegen.Models,
		Sizes:      imagegen.Sizes,
		MaxImages:  imagegen.MaxImages,
		Categories: names,
	})
}
