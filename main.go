package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/LostLucidity/lucid-ai-sub002/agent"
	"github.com/LostLucidity/lucid-ai-sub002/config"
	"github.com/LostLucidity/lucid-ai-sub002/gamedata"
	"github.com/LostLucidity/lucid-ai-sub002/ipc"
	"github.com/LostLucidity/lucid-ai-sub002/journal"
	"github.com/LostLucidity/lucid-ai-sub002/metrics"
	"github.com/LostLucidity/lucid-ai-sub002/plan"
)

const banner = `
██╗     ██╗   ██╗ ██████╗██╗██████╗
██║     ██║   ██║██╔════╝██║██╔══██╗
██║     ██║   ██║██║     ██║██║  ██║
██║     ██║   ██║██║     ██║██║  ██║
███████╗╚██████╔╝╚██████╗██║██████╔╝
╚══════╝ ╚═════╝  ╚═════╝╚═╝╚═════╝

Build-Order Planning for StarCraft II`

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the slog handler described by cfg. The returned closer
// releases a log file, if one was opened.
func newLogger(cfg config.LoggingConfig) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}

	var (
		out    io.Writer = os.Stdout
		closer io.Closer = io.NopCloser(nil)
	)
	switch cfg.Output {
	case "stderr":
		out = os.Stderr
	case "file":
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(out, opts)
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(out, opts)
	}
	return slog.New(h), closer, nil
}

// serve runs the sidecar until SIGINT or SIGTERM.
func serve(cfg *config.Config) error {
	logger, closer, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(logger)

	fmt.Println(banner)
	slog.Info("starting lucid")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Parse the build orders once up front so a broken file fails startup
	// rather than the first game.
	catalog, err := catalogSource(cfg.Plan)()
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if _, err := buildLibrary(cfg.Plan)(catalog); err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics, metrics.Registry); err != nil {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
	}
	recorder, err := metrics.NewRecorder()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	var openJournal func(string) journal.Writer
	if cfg.Journal.Enabled {
		db, err := journal.Open(cfg.Journal)
		if err != nil {
			return err
		}
		defer journal.Close(db)
		slog.Info("decision journal open", "type", cfg.Journal.Type)
		openJournal = func(session string) journal.Writer { return journal.New(db, session) }
	}

	deps := agent.Deps{
		Catalog:      catalogSource(cfg.Plan),
		Library:      buildLibrary(cfg.Plan),
		Doctrine:     cfg.Macro,
		DefaultPlan:  cfg.Plan.Default,
		TickInterval: cfg.Plan.TickInterval,
		Interval:     cfg.Strategist.Interval,
		Metrics:      recorder,
		Journal:      openJournal,
	}

	socketPath := cfg.Socket.Path

	// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("clean up socket %s: %w", socketPath, err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer os.Remove(socketPath)

	slog.Info("listening on domain socket", "path", socketPath)

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				slog.Info("shutting down")
				return nil
			default:
				slog.Error("failed to accept connection", "error", err)
				continue
			}
		}
		session := uuid.NewString()
		slog.Info("new connection accepted", "session", session)
		go agent.New(ipc.NewConnection(conn, nil), session, deps).Run(ctx)
	}
}

// catalogSource returns a fresh catalog per session: the built-in one, or
// the file named in cfg.
func catalogSource(cfg config.PlanConfig) func() (*gamedata.Catalog, error) {
	if cfg.Catalog == "" {
		return func() (*gamedata.Catalog, error) { return gamedata.Default(), nil }
	}
	return func() (*gamedata.Catalog, error) { return gamedata.LoadFile(cfg.Catalog) }
}

// buildLibrary returns the embedded orders, plus those under cfg.Dir, which
// replace built-ins with the same key.
func buildLibrary(cfg config.PlanConfig) func(*gamedata.Catalog) (*plan.Library, error) {
	return func(c *gamedata.Catalog) (*plan.Library, error) {
		lib, err := plan.DefaultLibrary(c)
		if err != nil {
			return nil, err
		}
		if cfg.Dir == "" {
			return lib, nil
		}
		orders, err := plan.LoadDir(c, cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("load build orders: %w", err)
		}
		for _, o := range orders {
			if err := lib.Add(o); err != nil {
				return nil, err
			}
		}
		return lib, nil
	}
}
