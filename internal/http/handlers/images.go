package handlers

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"dreamscape/internal/archive"
	"dreamscape/internal/domain"
	"dreamscape/internal/download"
	"dreamscape/internal/imagegen"
)

type promptMatchRequest struct {
	Prompt string `json:"prompt"`
	Top    int    `json:"top"`
}

// PromptMatch explains which stock image a prompt maps to.
func (a *App) PromptMatch(w http.ResponseWriter, r *http.Request) {
	var req promptMatchRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	res := a.Service.Explain(req.Prompt)
	if req.Top > 0 {
		res.Scores = res.Top(req.Top)
	}
	a.json(w, http.StatusOK, res)
}

func (a *App) ImagesGenerate(w http.ResponseWriter, r *http.Request) {
	var req imagegen.GenerateRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	gen, err := a.Service.Generate(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, gen)
}

func (a *App) GenerationGet(w http.ResponseWriter, r *http.Request) {
	gen, err := a.Service.Lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, gen)
}

// GenerationArchive bundles every image of a cached generation into a zip.
func (a *App) GenerationArchive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	gen, err := a.Service.Lookup(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	assets := make([]archive.Asset, len(gen.Images))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(4)
	for i, img := range gen.Images {
		g.Go(func() error {
			f, err := a.Downloader.Fetch(ctx, img.URL)
			if err != nil {
				return fmt.Errorf("image %s: %w", img.ID, err)
			}
			assets[i] = archive.Asset{Filename: img.Filename(), MIME: f.MIME, Data: f.Data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		a.fail(w, r, err)
		return
	}

	data, err := archive.Build(assets, gen.CreatedAt)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	attach(w, "application/zip", fmt.Sprintf("generation-%s.zip", id), data)
}

// ImageDownload proxies one generated image back as an attachment so the
// browser saves it instead of navigating to it.
func (a *App) ImageDownload(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("url"))
	if raw == "" {
		a.fail(w, r, fmt.Errorf("%w: url is required", domain.ErrInvalidRequest))
		return
	}
	f, err := a.Downloader.Fetch(r.Context(), raw)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	attach(w, f.MIME, download.SanitizeFilename(r.URL.Query().Get("filename")), f.Data)
}

func attach(w http.ResponseWriter, mimeType, filename string, data []byte) {
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
