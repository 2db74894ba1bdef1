package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/central-university-dev/go-shuttle/internal/config"
	"github.com/central-university-dev/go-shuttle/pkg"
)

// app хранит зависимости, общие для всех команд.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "shuttlectl",
		Short:         "Shuttle notifier maintenance tool",
		Long:          `Applies database migrations and seeds the initial users of the shuttle notifier.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			a.cfg = cfg
			a.logger = pkg.NewLoggerWithLevel(os.Stderr, cfg.Verbose)

			return nil
		},
	}

	rootCmd.AddCommand(migrateCmd(a))
	rootCmd.AddCommand(seedCmd(a))

	if err := rootCmd.Execute(); err != nil {
		pkg.NewLogger(os.Stderr).Error("Ошибка выполнения команды", "error", err)
		os.Exit(1)
	}
}
