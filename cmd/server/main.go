// Command server 提供购物篮复购推荐的 HTTP 服务。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/rushteam/basketrec/aggregate"
	"github.com/rushteam/basketrec/config"
	"github.com/rushteam/basketrec/fact"
	"github.com/rushteam/basketrec/feature"
	"github.com/rushteam/basketrec/model"
	"github.com/rushteam/basketrec/pkg/logging"
	"github.com/rushteam/basketrec/recommend"
	"github.com/rushteam/basketrec/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (default $"+config.PathEnvVar+")")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	loader, err := newLoader(cfg.Facts)
	if err != nil {
		return err
	}
	tables := aggregate.NewCache(loader, aggregate.Options{
		Shards:          cfg.Recommend.Shards,
		RefreshInterval: cfg.Facts.RefreshInterval,
	}, logger)

	// 启动时预热一次；失败不退出，请求时会重试
	if _, err := tables.Tables(ctx); err != nil {
		logger.Warn().Err(err).Str("loader", loader.Name()).Msg("initial fact load failed")
	}

	var opts []recommend.Option
	rankModel, err := model.Load(cfg.Model.Options(), feature.Names[:], logger)
	if err != nil {
		opts = append(opts, recommend.WithModelError(err))
	} else {
		logger.Info().Str("model", rankModel.Name()).Msg("scoring model loaded")
	}

	results, err := store.Open(ctx, cfg.Cache.StoreOptions())
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	if results != nil {
		defer results.Close()
		opts = append(opts, recommend.WithResultCache(results, cfg.Cache.TTL))
	}

	p, err := config.BuildPipeline(config.Deps{
		Model:     rankModel,
		Store:     results,
		Recommend: cfg.Recommend,
	})
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	rec := recommend.New(tables, p, append(opts, recommend.WithLogger(logger))...)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      recommend.NewHandler(rec, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLoader(cfg config.FactsConfig) (fact.Loader, error) {
	switch cfg.Source {
	case config.FactSourceCSV:
		l := fact.NewCSVLoader(cfg.CSVDir)
		l.PriorOnly = cfg.PriorOnly
		return l, nil
	case config.FactSourceDatabase:
		db, err := fact.Open(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, err
		}
		l := fact.NewGormLoader(db)
		l.PriorOnly = cfg.PriorOnly
		return l, nil
	default:
		return nil, fmt.Errorf("unknown facts source %q", cfg.Source)
	}
}
