package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qubicdash/qubicdash/pkg/types"
	"github.com/qubicdash/qubicdash/server/internal/alerts"
	"github.com/qubicdash/qubicdash/server/internal/api"
	"github.com/qubicdash/qubicdash/server/internal/config"
	"github.com/qubicdash/qubicdash/server/internal/i18n"
	"github.com/qubicdash/qubicdash/server/internal/metrics"
	"github.com/qubicdash/qubicdash/server/internal/refresher"
	"github.com/qubicdash/qubicdash/server/internal/store"
	"github.com/qubicdash/qubicdash/server/internal/upstream"
	"github.com/qubicdash/qubicdash/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (.yaml or .toml)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("qubicdash-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"snapshot_ttl", cfg.Server.Snapshot.TTL,
		"refresh_interval", cfg.Refresh.Interval,
		"asset", cfg.Upstream.CoinGecko.Asset,
		"currency", cfg.Upstream.CoinGecko.Currency,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	lang, _ := i18n.ParseLang(cfg.Display.Language)

	// Upstream clients share one HTTP client.
	httpClient := upstream.NewHTTPClient(cfg.Upstream.Timeout)
	scores := upstream.NewQubicLi(cfg.Upstream.QubicLi.BaseURL, httpClient)
	prices := upstream.NewCoinGecko(cfg.Upstream.CoinGecko.BaseURL, httpClient)
	history := upstream.NewHistory(cfg.Upstream.History.BaseURL, httpClient)
	tokens := upstream.NewTokenCache(scores, types.Credentials{
		UserName:      cfg.Upstream.QubicLi.UserName,
		Password:      cfg.Upstream.QubicLi.Password(),
		TwoFactorCode: cfg.Upstream.QubicLi.TwoFactorCode,
	}, cfg.Refresh.TokenSkew)

	// Store with background TTL eviction.
	st := store.New(cfg.Server.Snapshot.TTL)
	go st.Run(ctx)

	reg := metrics.New()
	alertEngine := alerts.New(cfg.Alerts)

	ref := refresher.New(refresher.Options{
		Interval:   cfg.Refresh.Interval,
		MaxRetries: cfg.Refresh.MaxRetries,
		Asset:      cfg.Upstream.CoinGecko.Asset,
		Currency:   cfg.Upstream.CoinGecko.Currency,
		Anchor:     cfg.Projection.Anchor.Anchor(),
	}, scores, prices, tokens, st, reg, alertEngine)
	go ref.Run(ctx)

	handler := api.New(api.Deps{
		Store:   st,
		Scores:  scores,
		History: history,
		Tokens:  tokens,
		Alerts:  alertEngine,
		Metrics: reg,
	}, api.Options{
		Asset:    cfg.Upstream.CoinGecko.Asset,
		Currency: cfg.Upstream.CoinGecko.Currency,
		Anchor:   cfg.Projection.Anchor.Anchor(),
		Params:   cfg.Projection.Params,
		Language: lang,
		Location: cfg.Display.Location(),
		Auth: api.AuthOptions{
			Mode:   cfg.Server.Auth.Mode,
			Header: cfg.Server.Auth.EffectiveHeader(),
			Key:    cfg.Server.Auth.Key(),
		},
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	// WebSocket hub pushes the dashboard to browsers.
	hub := ws.New(handler, ws.Options{
		Interval: cfg.Server.BroadcastInterval,
		Language: lang,
		Metrics:  reg,
	})
	go hub.Run(ctx)
	handler.Mount("/ws/stream", hub)

	// Income constants and alert rules follow config edits without a restart.
	// Ports, upstreams and the anchor need one.
	go func() {
		err := config.Watch(ctx, *configPath, func(next *config.Config) {
			handler.SetParams(next.Projection.Params)
			alertEngine.Reload(next.Alerts)
		})
		if err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("qubicdash-server shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
	alertEngine.Wait()
}
