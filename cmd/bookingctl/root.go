package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hnamyud/bookingclient/core/authstore"
	"github.com/hnamyud/bookingclient/core/storage"
	"github.com/hnamyud/bookingclient/core/transport"
)

var (
	sessionPath string
	verbose     bool

	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "bookingctl",
	Short:         "Session tool for the booking API",
	Long:          "bookingctl manages an authenticated session against the booking backend: login, silent re-authentication via the refresh cookie, and logout.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session-file", defaultSessionPath(), "Path of the durable session snapshot")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, csrfCmd, refreshCmd)
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bookingclient/session.json"
	}
	return filepath.Join(home, ".bookingclient", "session.json")
}

// buildStack wires storage, transport, and the session store from the
// environment and CLI flags.
func buildStack() (*authstore.Store, *transport.Client, error) {
	store, err := storage.NewFile(sessionPath)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := transport.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	client, err := transport.New(cfg,
		transport.WithLogger(log),
		transport.WithStorage(store),
	)
	if err != nil {
		return nil, nil, err
	}

	sessions, err := authstore.New(client, store, authstore.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	return sessions, client, nil
}
