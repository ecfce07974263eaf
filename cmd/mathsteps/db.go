package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stepmath/mathsteps/internal/config"
	"github.com/stepmath/mathsteps/internal/history"
	"github.com/stepmath/mathsteps/internal/home"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the history Postgres container",
	Long: `Manage the history Postgres container lifecycle.

Solve history is recorded to Postgres when history is enabled in the
config. The database runs in a Docker container with data persisted to
~/.mathsteps/postgres/.

Examples:
  mathsteps db start   # Start the Postgres container
  mathsteps db stop    # Stop the container (data preserved)
  mathsteps db status  # Check container status
  mathsteps db logs    # View container logs`,
}

var dbStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Postgres container",
	Long: `Start the history Postgres container.

If the container doesn't exist, it will be created and started.
If it exists but is stopped, it will be started.
If it's already running, this is a no-op.

Data is persisted to ~/.mathsteps/postgres/.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getDockerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Starting Postgres...")
		if err := mgr.Start(ctx); err != nil {
			return fmt.Errorf("failed to start Postgres: %w", err)
		}

		fmt.Printf("Postgres is running, DSN: %s\n", mgr.DSN())
		return nil
	},
}

var dbStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the Postgres container",
	Long: `Stop the history Postgres container.

This stops the container but preserves data. Use 'mathsteps db start'
to restart it later.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getDockerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Stopping Postgres...")
		if err := mgr.Stop(ctx); err != nil {
			return fmt.Errorf("failed to stop Postgres: %w", err)
		}

		fmt.Println("Postgres stopped")
		return nil
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show Postgres container status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getDockerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		status, err := mgr.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}

		switch status {
		case history.StatusRunning:
			fmt.Printf("Status: %s\n", status)
			fmt.Printf("DSN: %s\n", mgr.DSN())

			// Try a real connection
			store, err := history.Open(mgr.DSN())
			if err == nil {
				err = store.Ping(ctx)
				store.Close()
			}
			if err != nil {
				fmt.Printf("Health: unhealthy (%v)\n", err)
			} else {
				fmt.Println("Health: healthy")
			}
		case history.StatusStopped:
			fmt.Printf("Status: %s (use 'mathsteps db start' to start)\n", status)
		case history.StatusNotFound:
			fmt.Printf("Status: %s (use 'mathsteps db start' to create)\n", status)
		default:
			fmt.Printf("Status: %s\n", status)
		}

		return nil
	},
}

var logsTail string

var dbLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show Postgres container logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getDockerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		logs, err := mgr.Logs(ctx, logsTail)
		if err != nil {
			return fmt.Errorf("failed to get logs: %w", err)
		}

		fmt.Print(logs)
		return nil
	},
}

var dbRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the Postgres container",
	Long: `Remove the history Postgres container.

This stops and removes the container. Data in ~/.mathsteps/postgres/
is NOT deleted - only the container is removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getDockerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Removing Postgres container...")
		if err := mgr.Remove(ctx); err != nil {
			return fmt.Errorf("failed to remove container: %w", err)
		}

		fmt.Println("Postgres container removed (data preserved)")
		return nil
	},
}

var dbWaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for Postgres to be ready",
	Long: `Wait for Postgres to be ready to accept connections.

This is useful in scripts to ensure the database is fully started
before running other commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getDockerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		timeout, _ := cmd.Flags().GetDuration("timeout")
		fmt.Printf("Waiting for Postgres (timeout: %s)...\n", timeout)

		if err := mgr.WaitReady(ctx, timeout); err != nil {
			return fmt.Errorf("Postgres not ready: %w", err)
		}

		fmt.Println("Postgres is ready")
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbStartCmd)
	dbCmd.AddCommand(dbStopCmd)
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbLogsCmd)
	dbCmd.AddCommand(dbRemoveCmd)
	dbCmd.AddCommand(dbWaitCmd)

	dbLogsCmd.Flags().StringVar(&logsTail, "tail", "100", "Number of lines to show from the end")
	dbWaitCmd.Flags().Duration("timeout", 60*time.Second, "Timeout waiting for Postgres")

	rootCmd.AddCommand(dbCmd)
}

// getHome returns the home directory manager.
func getHome() (*home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, fmt.Errorf("failed to create home directory: %w", err)
	}
	return h, nil
}

// getDockerManager creates a DockerManager from the config's postgres
// section, with data under the mathsteps home.
func getDockerManager() (*history.DockerManager, error) {
	h, err := getHome()
	if err != nil {
		return nil, err
	}

	mgr, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, err
	}
	pg := mgr.Get().History.Postgres

	return history.NewDockerManager(history.DockerConfig{
		ContainerName: pg.ContainerName,
		Image:         pg.Image,
		DataPath:      h.PostgresDataPath(),
		HostPort:      pg.Port,
		User:          pg.User,
		Password:      config.ResolveEnvVars(pg.Password),
		Database:      pg.Database,
	})
}
