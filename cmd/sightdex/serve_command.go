package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sightdex/internal/answer"
	"sightdex/internal/fetch"
	"sightdex/internal/identify"
	"sightdex/internal/logging"
	"sightdex/internal/pokeapi"
	"sightdex/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sightdex API server",
		Long: `Run the HTTP API server until interrupted.

The server exposes POST /identify, POST /chat, GET /healthz, and
GET /api/status. Logs are written to stdout and to a per-run file under the
configured log directory; old run logs are pruned per logging.retention_days.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, ctx, bind)
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default: configured server.bind)")
	return cmd
}

func runServe(cmd *cobra.Command, ctx *commandContext, bindOverride string) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if bindOverride != "" {
		cfg.Server.Bind = bindOverride
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("sightdex-%s.log", runID))
	logger, err := logging.New(logging.Options{
		Level:            ctx.logLevel(cfg),
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update sightdex.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "sightdex-*.log", Exclude: []string{logPath}},
	)

	pidPath := filepath.Join(cfg.Paths.LogDir, "sightdex.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	fetcher := fetch.New(cfg, logger)
	defer fetcher.Close()
	catalog, err := pokeapi.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create catalog client: %w", err)
	}
	defer catalog.Close()
	identifier, err := identify.New(cfg, fetcher, catalog, logger)
	if err != nil {
		return fmt.Errorf("create identifier: %w", err)
	}
	answers := answer.New(catalog, logger)

	srv := server.New(cfg, identifier, answers, catalog, fetcher, logger)
	if err := srv.Start(signalCtx); err != nil {
		return err
	}
	defer srv.Stop()

	<-signalCtx.Done()
	logger.Info("sightdex shutting down")
	return nil
}

// ensureCurrentLogPointer keeps a stable sightdex.log name pointing at the
// newest run log. Symlinks are preferred; hard links cover filesystems
// without symlink support.
func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "sightdex.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err == nil {
		return nil
	} else {
		return fmt.Errorf("link log pointer: %w", err)
	}
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
