package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"VinylShop/core/catalog"
	"VinylShop/logger"
	"VinylShop/model"
	"VinylShop/storage"

	"github.com/gorilla/mux"
)

const maxCoverSize = 10 << 20 // 10MB

// AlbumRequest is the writable part of an album.
type AlbumRequest struct {
	Title             string  `json:"title"`
	Artist            string  `json:"artist"`
	Genre             string  `json:"genre"`
	ReleaseYear       int     `json:"releaseYear"`
	Description       string  `json:"description"`
	Cost              float64 `json:"cost"`
	QuantityAvailable int     `json:"quantityAvailable"`
}

func (req AlbumRequest) applyTo(a *model.Album) {
	a.Title = req.Title
	a.Artist = req.Artist
	a.Genre = req.Genre
	a.ReleaseYear = req.ReleaseYear
	a.Description = req.Description
	a.Cost = req.Cost
	a.QuantityAvailable = req.QuantityAvailable
}

func albumIDFromRequest(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}

// loadCatalog returns the full album list, from the cache when possible.
// A snapshot read before an album write is never left in the cache.
func (h *APIHandler) loadCatalog(ctx context.Context) ([]model.Album, error) {
	if h.cache != nil {
		albums, ok, err := h.cache.Get(ctx)
		if err != nil {
			logger.Warn("[Catalog] 读取缓存失败", logger.ErrorField(err))
		} else if ok {
			return albums, nil
		}
	}

	gen := h.catalogGen.Load()
	if err := h.creds.WaitReady(ctx); err != nil {
		return nil, err
	}
	albums, err := h.creds.Albums().ListAlbums(ctx)
	if err != nil {
		return nil, err
	}

	if h.cache != nil && h.catalogGen.Load() == gen {
		if err := h.cache.Set(ctx, albums); err != nil {
			logger.Warn("[Catalog] 写入缓存失败", logger.ErrorField(err))
		}
		// a write may have invalidated between the check and Set
		if h.catalogGen.Load() != gen {
			h.invalidateCache(ctx)
		}
	}
	return albums, nil
}

// catalogChanged drops the cached catalog and tells live-search clients to reload.
// The generation moves before Invalidate so concurrent fills see the write.
func (h *APIHandler) catalogChanged(ctx context.Context) {
	h.catalogGen.Add(1)
	h.invalidateCache(ctx)
	h.hub.CatalogChanged()
}

func (h *APIHandler) invalidateCache(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx); err != nil {
		logger.Warn("[Catalog] 缓存失效失败", logger.ErrorField(err))
	}
}

// ListAlbumsHandler returns the catalog, filtered by ?q= when present.
func (h *APIHandler) ListAlbumsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	ctx := r.Context()

	var (
		albums []model.Album
		err    error
	)
	if h.cache != nil {
		var all []model.Album
		if all, err = h.loadCatalog(ctx); err == nil {
			albums = catalog.Filter(all, query)
		}
	} else {
		if err = h.creds.WaitReady(ctx); err == nil {
			albums, err = h.creds.Albums().SearchAlbums(ctx, query)
		}
	}
	if err != nil {
		writeServiceError(w, "ListAlbums", err)
		return
	}
	if albums == nil {
		albums = []model.Album{}
	}

	logger.Debug("[ListAlbums] 查询专辑", logger.String("query", query), logger.Int("count", len(albums)))
	writeData(w, http.StatusOK, albums)
}

// GetAlbumHandler returns one album.
func (h *APIHandler) GetAlbumHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := albumIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid album ID")
		return
	}
	if err := h.creds.WaitReady(r.Context()); err != nil {
		writeServiceError(w, "GetAlbum", err)
		return
	}

	album, err := h.creds.Albums().GetAlbumByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, "GetAlbum", err)
		return
	}
	if album == nil {
		writeError(w, http.StatusNotFound, "Album not found")
		return
	}
	writeData(w, http.StatusOK, album)
}

// CreateAlbumHandler 创建新专辑
func (h *APIHandler) CreateAlbumHandler(w http.ResponseWriter, r *http.Request) {
	var req AlbumRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	album := &model.Album{}
	req.applyTo(album)
	if _, err := h.creds.CreateAlbum(r.Context(), album); err != nil {
		writeServiceError(w, "CreateAlbum", err)
		return
	}

	h.catalogChanged(r.Context())
	writeData(w, http.StatusCreated, album)
}

// UpdateAlbumHandler 更新专辑信息
func (h *APIHandler) UpdateAlbumHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := albumIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid album ID")
		return
	}

	var req AlbumRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.creds.WaitReady(r.Context()); err != nil {
		writeServiceError(w, "UpdateAlbum", err)
		return
	}

	album, err := h.creds.Albums().GetAlbumByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, "UpdateAlbum", err)
		return
	}
	if album == nil {
		writeError(w, http.StatusNotFound, "Album not found")
		return
	}

	req.applyTo(album)
	if _, err := h.creds.UpdateAlbum(r.Context(), album); err != nil {
		writeServiceError(w, "UpdateAlbum", err)
		return
	}

	h.catalogChanged(r.Context())
	writeData(w, http.StatusOK, album)
}

// DeleteAlbumHandler 删除专辑及其封面
func (h *APIHandler) DeleteAlbumHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := albumIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid album ID")
		return
	}
	if err := h.creds.WaitReady(r.Context()); err != nil {
		writeServiceError(w, "DeleteAlbum", err)
		return
	}

	album, err := h.creds.Albums().GetAlbumByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, "DeleteAlbum", err)
		return
	}
	if album == nil {
		writeError(w, http.StatusNotFound, "Album not found")
		return
	}

	if err := h.creds.Albums().DeleteAlbum(r.Context(), id); err != nil {
		writeServiceError(w, "DeleteAlbum", err)
		return
	}
	if album.CoverPath != "" && h.covers != nil {
		if err := h.covers.DeleteCover(r.Context(), album.CoverPath); err != nil {
			logger.Warn("[DeleteAlbum] 删除封面失败", logger.String("object", album.CoverPath), logger.ErrorField(err))
		}
	}

	h.catalogChanged(r.Context())
	writeData(w, http.StatusOK, map[string]uint64{"id": id})
}

// UploadCoverHandler stores a multipart "cover" file and records its key on the album.
func (h *APIHandler) UploadCoverHandler(w http.ResponseWriter, r *http.Request) {
	if h.covers == nil {
		writeError(w, http.StatusServiceUnavailable, "Cover storage is not configured")
		return
	}
	id, ok := albumIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid album ID")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCoverSize+1<<20)
	if err := r.ParseMultipartForm(maxCoverSize); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}
	file, header, err := r.FormFile("cover")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing 'cover' in form")
		return
	}
	defer file.Close()

	if err := h.creds.WaitReady(r.Context()); err != nil {
		writeServiceError(w, "UploadCover", err)
		return
	}
	album, err := h.creds.Albums().GetAlbumByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, "UploadCover", err)
		return
	}
	if album == nil {
		writeError(w, http.StatusNotFound, "Album not found")
		return
	}

	objectName, err := h.covers.PutCover(r.Context(), id, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) {
			writeError(w, http.StatusUnsupportedMediaType, err.Error())
			return
		}
		writeServiceError(w, "UploadCover", err)
		return
	}

	if err := h.creds.Albums().UpdateCoverPath(r.Context(), id, objectName); err != nil {
		writeServiceError(w, "UploadCover", err)
		return
	}
	if album.CoverPath != "" {
		if err := h.covers.DeleteCover(r.Context(), album.CoverPath); err != nil {
			logger.Warn("[UploadCover] 删除旧封面失败", logger.String("object", album.CoverPath), logger.ErrorField(err))
		}
	}

	album.CoverPath = objectName
	h.catalogChanged(r.Context())
	writeData(w, http.StatusOK, album)
}

// ServeCoverHandler streams a cover object from storage.
func (h *APIHandler) ServeCoverHandler(w http.ResponseWriter, r *http.Request) {
	if h.covers == nil {
		http.NotFound(w, r)
		return
	}

	name := "covers/" + mux.Vars(r)["key"]
	obj, info, err := h.covers.OpenCover(r.Context(), name)
	if err != nil {
		logger.Debug("[ServeCover] 封面不存在", logger.String("object", name), logger.ErrorField(err))
		http.NotFound(w, r)
		return
	}
	defer obj.Close()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.Header().Set("Cache-Control", "public, max-age=31536000") // 缓存一年
	if _, err := io.Copy(w, obj); err != nil {
		logger.Warn("[ServeCover] 发送封面失败", logger.ErrorField(err))
	}
}
