package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync/atomic"

	"VinylShop/config"
	"VinylShop/core/auth"
	"VinylShop/core/credential"
	"VinylShop/core/live"
	"VinylShop/logger"
	"VinylShop/model"
	"VinylShop/repository"
	"VinylShop/storage"
)

// AlbumCache is the catalog snapshot cache; cache.AlbumCache implements it.
type AlbumCache interface {
	Get(ctx context.Context) ([]model.Album, bool, error)
	Set(ctx context.Context, albums []model.Album) error
	Invalidate(ctx context.Context) error
}

// CoverStore keeps album cover images; storage.CoverStorage implements it.
type CoverStore interface {
	PutCover(ctx context.Context, albumID uint64, r io.Reader, size int64, contentType string) (string, error)
	OpenCover(ctx context.Context, name string) (io.ReadCloser, storage.ObjectInfo, error)
	DeleteCover(ctx context.Context, name string) error
}

// APIHandler 处理所有API请求
type APIHandler struct {
	creds  *credential.Store
	tokens *auth.TokenManager
	cache  AlbumCache // optional
	covers CoverStore // optional
	hub    *live.Hub
	cfg    *config.Config

	// catalogGen counts album writes; a cache fill that spans a write is discarded.
	catalogGen atomic.Uint64
}

// NewAPIHandler 创建新的API处理器. cache and covers may be nil. Call Close to stop the live-search hub.
func NewAPIHandler(
	creds *credential.Store,
	tokens *auth.TokenManager,
	cache AlbumCache,
	covers CoverStore,
	cfg *config.Config,
) *APIHandler {
	h := &APIHandler{
		creds:  creds,
		tokens: tokens,
		cache:  cache,
		covers: covers,
		hub:    live.NewHub(),
		cfg:    cfg,
	}
	go h.hub.Run()
	return h
}

// Close stops the live-search hub.
func (h *APIHandler) Close() {
	h.hub.Stop()
}

type apiResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message,omitempty"`
	Data    interface{}        `json:"data,omitempty"`
	Errors  []model.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("编码响应失败", logger.ErrorField(err))
	}
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, apiResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiResponse{Success: false, Message: message})
}

// writeServiceError maps domain errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: verr.Error(), Errors: verr.Fields})
	case errors.Is(err, repository.ErrDuplicateUser):
		writeError(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, credential.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, repository.ErrAlbumNotFound), errors.Is(err, repository.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "Service not ready")
	default:
		logger.Error("["+op+"] 请求处理失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// HealthHandler reports whether the database is ready and reachable.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.creds.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}
