// Package main is the harvester CLI: seed a category's database from JSON
// artifacts, inspect and drive the product queue, drain a batch of fetches,
// and push an authoritative component change through the cascade.
//
// # File Index
//
//   - main.go        - entry point, rootCmd, global flags
//   - cmd_seed.go    - seedCmd
//   - cmd_queue.go   - queueCmd (list, next, sweep-stale)
//   - cmd_drain.go   - drainCmd
//   - cmd_cascade.go - cascadeCmd
//   - cmd_review.go  - reviewCmd
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/CdubVentures/spec-harvester-sub006/internal/config"
	"github.com/CdubVentures/spec-harvester-sub006/internal/logging"
	"github.com/CdubVentures/spec-harvester-sub006/internal/store"
)

var (
	verbose    bool
	configPath string
	storePath  string

	cfg *config.Config
	db  *store.Store
)

var rootCmd = &cobra.Command{
	Use:   "harvester",
	Short: "Product specification harvesting and curation engine",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Configure(verbose); err != nil {
			return fmt.Errorf("configure logging: %w", err)
		}

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		s, err := store.Open(storePath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		db = s
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		logging.Sync()
		if db != nil {
			return db.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (defaults applied if omitted)")
	rootCmd.PersistentFlags().StringVar(&storePath, "db", "harvester.db", "path to the SpecDb file")

	rootCmd.AddCommand(seedCmd, queueCmd, drainCmd, cascadeCmd, reviewCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
