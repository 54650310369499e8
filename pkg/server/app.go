package server

import (
	"context"
	"fmt"
	"io"
	"time"

	"StockPulse/internal/service/symbols"
	"StockPulse/internal/usecase"
	"StockPulse/pkg/config"
	xhttp "StockPulse/pkg/http"
	pkgkafka "StockPulse/pkg/kafka"
	applogger "StockPulse/pkg/logger"
)

const (
	CommandServe   = "serve"
	CommandConsume = "consume"
)

type namedCloser struct {
	name string
	c    io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	pipeline   *usecase.Pipeline
	handler    xhttp.Handler
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	httpServer *xhttp.Server
	closers    []namedCloser
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, pipeline *usecase.Pipeline, handler xhttp.Handler) *App {
	return &App{cfg: cfg, log: l, pipeline: pipeline, handler: handler}
}

// SetConsumer attaches the Kafka consumer used by the consume command.
func (a *App) SetConsumer(c *pkgkafka.Consumer, kh pkgkafka.MessageHandler) {
	a.consumer = c
	a.kh = kh
}

// AddCloser registers a resource released by Close, in reverse order of registration.
func (a *App) AddCloser(name string, c io.Closer) {
	a.closers = append(a.closers, namedCloser{name: name, c: c})
}

// Run executes command. Batch commands return their result; serve and consume block until ctx is done.
func (a *App) Run(ctx context.Context, command string, syms []string) (*usecase.BatchResult, error) {
	switch command {
	case CommandServe:
		return nil, a.serve(ctx)
	case CommandConsume:
		return nil, a.consume(ctx)
	}

	list, file := syms, ""
	if len(list) == 0 {
		list, file = a.cfg.Symbols.List, a.cfg.Symbols.File
	}
	syms, err := symbols.Load(list, file)
	if err != nil {
		a.log.Error("load symbols failed", applogger.String("file", file), applogger.Error(err))
		return nil, err
	}
	if len(syms) == 0 {
		return nil, fmt.Errorf("no symbols configured")
	}
	return a.pipeline.Run(ctx, command, syms)
}

func (a *App) serve(ctx context.Context) error {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(a.cfg.Server.CORSOrigins),
		xhttp.WithLogger(a.log),
	}
	if a.cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetricsPath(a.cfg.Metrics.Path))
	} else {
		opts = append(opts, xhttp.WithMetricsPath(""))
	}
	a.httpServer = xhttp.NewServer(a.handler, opts...)
	if err := a.httpServer.Start(); err != nil {
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case runErr = <-a.httpServer.Errors():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	return runErr
}

func (a *App) consume(ctx context.Context) error {
	if a.consumer == nil || a.kh == nil {
		return fmt.Errorf("consume: kafka brokers are not configured")
	}
	a.consumer.RegisterHandler(a.kh)
	if err := a.consumer.Start(); err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))

	<-ctx.Done()
	a.log.Info("shutdown signal received")

	stopCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return a.consumer.Stop(stopCtx)
}

// Close flushes the log collector and releases infrastructure clients.
func (a *App) Close() {
	a.log.RemoveCollector()
	for i := len(a.closers) - 1; i >= 0; i-- {
		nc := a.closers[i]
		start := time.Now()
		if err := nc.c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", nc.name), applogger.Error(err))
			continue
		}
		a.log.Debug("closed", applogger.String("resource", nc.name), applogger.Duration("took", time.Since(start)))
	}
	a.log.Info("shutdown complete")
}
