package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soar/padview/internal/config"
	"github.com/soar/padview/internal/console"
	"github.com/soar/padview/internal/gamepad/sdlreader"
	"github.com/soar/padview/internal/hub"
	"github.com/soar/padview/internal/logger"
	"github.com/soar/padview/internal/loop"
	"github.com/soar/padview/internal/metrics"
	"github.com/soar/padview/internal/server"
	"github.com/soar/padview/internal/tray"
	"github.com/spf13/pflag"
)

// os.Interrupt is SIGINT on Unix and Ctrl+C on Windows
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func main() {
	gui := console.Detached()
	cfg, v, err := config.Load(os.Args[1:], gui)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logger.New(logger.Options{
		Level:   cfg.Log.Level,
		Console: cfg.Log.Console,
		NoColor: cfg.Log.NoColor,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	config.Watch(v, func(c *config.Config) {
		if err := logger.SetLevel(c.Log.Level); err != nil {
			log.Warn().Err(err).Msg("Config reload")
			return
		}
		log.Info().Str("level", c.Log.Level).Msg("Config reloaded")
	}, func(err error) {
		log.Warn().Err(err).Msg("Config reload")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)
	consoleShutdown := make(chan struct{})
	rearmConsole := console.SetupConsoleHandler(consoleShutdown, log)

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	h := hub.NewHub(log.Tag("hub"), m)
	go h.Run(ctx)
	broadcaster := hub.NewBroadcaster(h, log.Tag("hub"), m)
	go broadcaster.Run(ctx)

	surface := loop.Multi{broadcaster}
	if cfg.Log.Input {
		surface = append(surface, loop.NewInputLog(log.Tag("input")))
	}

	// Channel for tray-triggered shutdown
	shutdownRequested := make(chan struct{})
	var t *tray.Tray
	if cfg.Tray.Enabled {
		t = tray.New(cfg.URL(), log.Tag("tray"), func() { close(shutdownRequested) })
		surface = append(surface, t)
		go t.Run(tray.Icon())
	} else {
		log.Info().Msg("Press Ctrl+C to exit")
	}

	opts := server.Options{Addr: cfg.Server.Addr}
	if cfg.Metrics.Enabled {
		opts.MetricsPath = cfg.Metrics.Path
		opts.Gatherer = reg
	}
	srv, err := server.New(h, broadcaster, frontendFS(), opts, log.Tag("http"))
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot prepare HTTP server")
	}
	ln, err := srv.Listen()
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot start HTTP server")
	}
	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()
	log.Info().Str("url", cfg.URL()).Msg("padview started")
	if cfg.Server.OpenBrowser {
		tray.OpenBrowser(cfg.URL(), log)
	}

	// SDL needs its own locked thread; Run returns when ctx is cancelled
	// or right away if SDL3 is missing or cannot poll controllers.
	reader := sdlreader.New(log.Tag("sdl"), cfg.Poll.Slots, cfg.Poll.Interval)
	reader.SetLibrary(cfg.Poll.SDLLibrary)
	reader.OnInit(rearmConsole)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		if err := reader.Run(ctx); err != nil {
			log.Warn().Err(err).Msg("Controller polling unavailable")
		}
	}()

	clock := loop.NewFrameClock(cfg.Poll.FrameInterval())
	driver := loop.NewDriver(reader, clock, surface, log.Tag("loop"), m)
	driverDone := make(chan struct{})
	go func() {
		defer close(driverDone)
		driver.Run(ctx, clock.C(), reader.Events())
	}()

	select {
	case <-sigCh:
		log.Info().Msg("Shutting down...")
	case <-consoleShutdown:
		log.Info().Msg("Shutting down...")
	case <-shutdownRequested:
		log.Info().Msg("Shutdown requested from tray")
	case err := <-serverErrCh:
		log.Error().Err(err).Msg("HTTP server error")
	}
	cancel()

	<-driverDone
	clock.Close()
	<-readerDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server shutdown error")
	}
	if t != nil {
		t.Quit()
	}

	log.Info().Msg("padview stopped")
}
