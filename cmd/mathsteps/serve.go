package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/stepmath/mathsteps/internal/config"
	"github.com/stepmath/mathsteps/internal/home"
	"github.com/stepmath/mathsteps/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MathSteps server",
	Long: `Start the MathSteps HTTP server.

When history recording is enabled in the config, this also starts the
Postgres container and stops it again on shutdown (Ctrl+C or SIGTERM).

The server provides:
  - /health - Basic server health check
  - /ready  - Readiness check (solver pipeline initialized)
  - /api/v1/solve and friends - the solve pipeline

Examples:
  mathsteps serve                    # Start on default port 8080
  mathsteps serve --port 3000        # Start on custom port
  mathsteps serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		mgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		mgr.WatchConfig()

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel(mgr.Get().Server.LogLevel),
		}))

		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			ConfigManager: mgr,
			Home:          h,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

// logLevel maps a config string to a slog level, defaulting to info.
func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config)")

	rootCmd.AddCommand(serveCmd)
}
