// Command opsctl runs one-off operational tasks against the crew database.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/debranko/obedio-yacht-crew-management-sub004/config"
	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/database"
	applogger "github.com/debranko/obedio-yacht-crew-management-sub004/pkg/logger"
)

var (
	configPath string
	timeout    time.Duration
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:           "opsctl",
	Short:         "Operational tasks for the crew operations backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./config/config.yaml)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "operation timeout")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(requestsCmd)
	rootCmd.AddCommand(usersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env everything a subcommand needs; close releases it
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

func openEnv() (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, err
	}
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, db: db}, nil
}

func (e *env) close() {
	_ = database.Close(e.db)
	_ = e.logger.Sync()
}
