// Package cli wires configuration, logging and the store into the avatarchat
// command and its interactive shell.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"avatar-chat/internal/app"
	"avatar-chat/internal/config"
	"avatar-chat/internal/db"
	"avatar-chat/internal/device"
	"avatar-chat/internal/logging"
	"avatar-chat/internal/matcher"
	"avatar-chat/internal/store"
)

type rootOptions struct {
	verbose     bool
	settingsDir string
	backend     string

	cfg *config.Config
}

// NewRootCmd builds the avatarchat command tree
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "avatarchat",
		Short: "Create personas and chat with them",
		Long: `avatarchat keeps a set of avatars, each with attached documents and
images and its own chat thread, and lets you talk to them from an
interactive shell.

Everything lives in memory and is gone when the shell exits.

Quick Start:
  avatarchat                     # start the shell
  avatarchat --backend sqlite    # use the SQLite-backed store
  avatarchat version`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, opts)
		},
	}

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().StringVar(&opts.settingsDir, "settings", "", "Settings directory (default $SETTINGS_DIR or ./settings)")
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "Store backend: memory or sqlite (overrides STORE_BACKEND)")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(&cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, opts)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		// No configuration needed
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "avatarchat %s\n", version)
			return nil
		},
	})

	return root
}

// load reads the configuration, applies flag overrides and sets up logging
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.settingsDir)
	if err != nil {
		return err
	}
	if o.backend != "" {
		cfg.StoreBackend = o.backend
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid --backend: %w", err)
		}
	}

	logging.Setup(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat, o.verbose)
	o.cfg = cfg
	return nil
}

func runShell(cmd *cobra.Command, opts *rootOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, closeStore, err := openStore(opts.cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	in := bufio.NewReader(cmd.InOrStdin())
	prompter := device.NewLinePrompter(in, cmd.OutOrStdout())

	a, err := newApp(opts.cfg, st, prompter)
	if err != nil {
		return err
	}
	a.Init(ctx)

	log.Info().Str("backend", opts.cfg.StoreBackend).Msg("shell started")
	return NewShell(a, prompter, cmd.OutOrStdout()).Run(ctx)
}

// openStore creates the configured backend and a function releasing it
func openStore(cfg *config.Config) (store.Store, func(), error) {
	logger := log.Logger

	switch cfg.StoreBackend {
	case config.BackendSQLite:
		database, err := db.NewDB(store.WithLogger(logger))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := database.Migrate(); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return database, func() { closeQuietly(logger, database) }, nil
	default:
		return store.NewMemory(store.WithLogger(logger)), func() {}, nil
	}
}

func newApp(cfg *config.Config, st store.Store, prompter device.Prompter) (*app.App, error) {
	camera, err := device.ParsePermissionStatus(cfg.CameraPermission)
	if err != nil {
		return nil, err
	}

	return app.New(app.Deps{
		Store: st,
		Matcher: matcher.NewRandomMatcher(st,
			matcher.WithRate(cfg.Match.Rate),
			matcher.WithSeed(cfg.Match.Seed),
		),
		Camera:      device.NewPromptCamera(prompter),
		Picker:      device.NewPromptPicker(prompter),
		Recorder:    device.NewTempRecorder(cfg.RecordingsDir),
		Permissions: device.StaticPermissions{Camera: camera},
	}), nil
}

func closeQuietly(logger zerolog.Logger, c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Warn().Err(err).Msg("close failed")
	}
}
