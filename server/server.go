package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"VinylShop/cache"
	"VinylShop/config"
	"VinylShop/core/auth"
	"VinylShop/core/credential"
	"VinylShop/db"
	"VinylShop/logger"
	"VinylShop/storage"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// NewRouter wires all routes of h. Metrics go to reg, which is also served on /metrics.
func NewRouter(h *APIHandler, reg *prometheus.Registry) http.Handler {
	metrics := NewMetrics(reg)
	loginLimiter := rate.NewLimiter(rate.Limit(h.cfg.LoginRateLimit), h.cfg.LoginBurst)

	// 使用 gorilla/mux 创建路由器
	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.Use(metrics.Middleware)

	router.HandleFunc("/healthz", h.HealthHandler).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	// 用户认证相关的API端点
	router.HandleFunc("/api/auth/register", h.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", RateLimit(loginLimiter, h.LoginHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/users/me", h.AuthMiddleware(h.MeHandler)).Methods(http.MethodGet)

	// 专辑相关的API端点
	router.HandleFunc("/api/albums", h.ListAlbumsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/albums", h.AdminOnly(h.CreateAlbumHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/albums/{id:[0-9]+}", h.GetAlbumHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/albums/{id:[0-9]+}", h.AdminOnly(h.UpdateAlbumHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/albums/{id:[0-9]+}", h.AdminOnly(h.DeleteAlbumHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/albums/{id:[0-9]+}/cover", h.AdminOnly(h.UploadCoverHandler)).Methods(http.MethodPost)
	router.HandleFunc("/covers/{key:.+}", h.ServeCoverHandler).Methods(http.MethodGet, http.MethodHead)

	// 实时搜索
	router.HandleFunc("/ws/search", h.SearchWebSocketHandler).Methods(http.MethodGet)

	return router
}

// Start initializes and starts the HTTP server. It blocks until SIGINT/SIGTERM.
func Start(cfg *config.Config) error {
	store, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// 在后台迁移表结构, 请求会等待 WaitReady
	syncCtx, cancelSync := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancelSync()
	store.SyncAsync(syncCtx)

	var albumCache AlbumCache
	if cfg.RedisEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := cache.ConnectRedis(ctx, cfg)
		cancel()
		if err != nil {
			logger.Warn("Redis不可用, 专辑缓存已禁用", logger.ErrorField(err))
		} else {
			defer client.Close()
			albumCache = cache.NewAlbumCache(client, cfg.CatalogTTL)
		}
	}

	var covers CoverStore
	if cfg.MinioEnabled() {
		cs, err := storage.NewCoverStorage(cfg)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err = cs.EnsureBucket(ctx)
			cancel()
		}
		if err != nil {
			logger.Warn("MinIO不可用, 封面上传已禁用", logger.ErrorField(err))
		} else {
			covers = cs
		}
	}

	creds := credential.NewGorm(store)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	h := NewAPIHandler(creds, tokens, albumCache, covers, cfg)
	defer h.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// 设置服务器超时
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      NewRouter(h, reg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待中断信号
	select {
	case <-stop:
	case err := <-errCh:
		return err
	}
	logger.Info("Shutting down server...")

	// 创建一个5秒超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := server.Shutdown(ctx); err != nil {
		return err
	}

	logger.Info("Server stopped")
	return nil
}
