package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"WebChat/global"
	"WebChat/logger"
	"WebChat/router"
	"WebChat/service/auth"
	"WebChat/service/chat"
	"WebChat/service/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := global.Load()
	if err != nil {
		logger.Errorf("config: %v", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.DB.URL)
	if err != nil {
		logger.Errorf("storage: %v", err)
		return
	}
	defer store.Close()

	presence, err := storage.NewRedisPresence(ctx, storage.PresenceConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Redis.PresenceTTL,
	})
	if err != nil {
		logger.Errorf("presence: %v", err)
		return
	}

	authMgr := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	registry := chat.NewRegistry()
	rooms := chat.NewRoomIndex()
	disp := chat.NewDispatcher(registry, rooms)
	notifier := chat.NewNotifier(registry, store, presence)
	wsHandler := chat.NewHandler(chat.Options{
		ReadLimit:    cfg.WS.ReadLimit,
		SendBuffer:   cfg.WS.SendBuffer,
		WriteTimeout: cfg.WS.WriteTimeout,
		PongTimeout:  cfg.WS.PongTimeout,
		PingInterval: cfg.WS.PingInterval,
	}, authMgr, store, registry, rooms, disp, notifier)
	reconciler := chat.NewSyncReconciler(store)

	engine := gin.New()
	engine.Use(gin.Recovery())
	router.New(store, presence, authMgr, wsHandler, disp, reconciler).Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: engine,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("serve: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
