// Command tiledb creates, writes, reads and inspects dense arrays.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-tiledb/internal/config"
	"github.com/robert-malhotra/go-tiledb/tiledb"
)

type app struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
	sm         *tiledb.StorageManager
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "tiledb",
		Short:         "Dense array storage tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.sm != nil {
				a.sm.Close()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (yaml, toml or json)")

	root.AddCommand(
		newCreateCmd(a),
		newWriteCmd(a),
		newReadCmd(a),
		newInfoCmd(a),
	)
	return root
}

func (a *app) open(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cfg.Log.Logger()
	slog.SetDefault(a.logger)

	st, err := tiledb.NewStore(cmd.Context(), cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.sm, err = tiledb.NewStorageManager(st,
		tiledb.WithLogger(a.logger),
		tiledb.WithWorkers(cfg.Workers),
		tiledb.WithTileCacheSize(cfg.TileCacheSize),
	)
	if err != nil {
		return err
	}
	a.logger.Debug("storage opened", "backend", st.Type(), "workers", cfg.Workers)
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
