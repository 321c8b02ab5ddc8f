package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satindergrewal/brandtone/internal/api"
	"github.com/satindergrewal/brandtone/internal/audio"
	"github.com/satindergrewal/brandtone/internal/autodj"
	"github.com/satindergrewal/brandtone/internal/render"
	"github.com/satindergrewal/brandtone/internal/stream"
	"github.com/satindergrewal/brandtone/internal/synth"
	"github.com/satindergrewal/brandtone/internal/wavstore"
)

const (
	shutdownTimeout = 5 * time.Second
	radioDir        = "radio"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the render API and the radio stream",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := wavstore.NewFileStore(cfg.OutputDir, synth.SampleRate)
	renderer := render.New(store, cfg.MaxDuration, logger.Named("render"))

	// Radio tracks live in their own directory, pruned as they play out.
	radioStore := wavstore.NewFileStore(filepath.Join(cfg.OutputDir, radioDir), synth.SampleRate)
	radioRenderer := render.New(radioStore, cfg.MaxDuration, logger.Named("render.radio"))

	pipeline := audio.NewPipeline(cfg.CrossfadeDuration, logger.Named("pipeline"))
	go pipeline.Run(ctx)

	broadcaster := stream.NewBroadcaster()
	go broadcaster.Run(ctx, pipeline.Frames())

	sched := autodj.NewScheduler(radioRenderer, pipeline, autodj.SchedulerConfig{
		StartingStation: cfg.StartingStation,
		TrackDuration:   cfg.TrackDuration,
		BufferAhead:     cfg.BufferAhead,
		DwellMin:        cfg.DwellMin,
		DwellMax:        cfg.DwellMax,
	}, logger.Named("autodj"))

	webrtcHandler := stream.NewWebRTCHandler(broadcaster, logger.Named("webrtc"))

	// Idle detection: pause rendering when nobody is listening
	sched.SetListenerCountFunc(broadcaster.ListenerCount)
	sched.SetPruner(radioStore)
	go sched.Run(ctx)

	srv := api.NewServer(api.Deps{
		Renderer:  renderer,
		Catalog:   store,
		DJ:        sched,
		Player:    pipeline,
		Stream:    stream.NewHTTPHandler(broadcaster, "brandtone radio", logger.Named("http")),
		Offer:     webrtcHandler,
		Listeners: broadcaster.ListenerCount,
		Peers:     webrtcHandler.PeerCount,
	}, logger.Named("api"))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("brandtone live",
			zap.String("addr", server.Addr),
			zap.String("station", cfg.StartingStation),
			zap.String("output_dir", cfg.OutputDir),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		// Open streams never finish on their own.
		server.Close()
	}
	return nil
}
