package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"dreamscape/internal/domain"
	"dreamscape/internal/download"
	"dreamscape/internal/imagegen"
)

const maxBodyBytes = 64 << 10

type App struct {
	Service    *imagegen.Service
	Downloader *download.Downloader
	Logger     zerolog.Logger
}

func NewApp(svc *imagegen.Service, dl *download.Downloader, logger zerolog.Logger) *App {
	return &App{Service: svc, Downloader: dl, Logger: logger}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, msg string) {
	a.json(w, code, errorBody{Error: errorDetail{Code: errCode, Message: msg}})
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("%w: trailing data after JSON body", domain.ErrInvalidRequest)
	}
	return nil
}

// fail maps a service error onto an HTTP status and error code.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status = http.StatusInternalServerError
		code   = "internal"
		msg    = "internal error"
	)
	switch {
	case errors.Is(err, domain.ErrInvalidPrompt):
		status, code, msg = http.StatusBadRequest, "invalid_prompt", err.Error()
	case errors.Is(err, domain.ErrInvalidSize):
		status, code, msg = http.StatusBadRequest, "invalid_size", err.Error()
	case errors.Is(err, domain.ErrUnsupportedModel):
		status, code, msg = http.StatusBadRequest, "unsupported_model", err.Error()
	case errors.Is(err, domain.ErrInvalidRequest):
		status, code, msg = http.StatusBadRequest, "bad_request", err.Error()
	case errors.Is(err, domain.ErrHostNotAllowed):
		status, code, msg = http.StatusBadRequest, "host_not_allowed", "image host is not allowed"
	case errors.Is(err, domain.ErrNotFound):
		status, code, msg = http.StatusNotFound, "not_found", "generation not found"
	case errors.Is(err, domain.ErrUpstreamStatus):
		status, code, msg = http.StatusBadGateway, "upstream_error", "image host returned an error"
	case errors.Is(err, domain.ErrPayloadTooLarge):
		status, code, msg = http.StatusBadGateway, "payload_too_large", "image exceeds the download limit"
	case errors.Is(err, context.DeadlineExceeded):
		status, code, msg = http.StatusGatewayTimeout, "timeout", "request timed out"
	case errors.Is(err, context.Canceled):
		status, code, msg = http.StatusServiceUnavailable, "canceled", "request canceled"
	}

	log := zerolog.Ctx(r.Context())
	if log.GetLevel() == zerolog.Disabled {
		log = &a.Logger
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("code", code).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("code", code).Msg("request rejected")
	}
	a.error(w, status, code, msg)
}
