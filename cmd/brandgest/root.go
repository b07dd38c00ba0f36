package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgallion1/brandgest/internal/config"
	"github.com/dgallion1/brandgest/internal/questionnaire"
)

var (
	cfgFile string
	cfg     config.Config
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "brandgest",
	Short:         "Brand questionnaire to marketing strategy service",
	Long:          "Extracts answers from brand questionnaires and turns them into a marketing strategy with Claude.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		l, err := config.InitLogger(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return eris.Wrap(err, "init logger")
		}
		logger = l
		zap.ReplaceGlobals(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// loadCatalog returns the configured catalog or the built-in one.
func loadCatalog() (*questionnaire.Catalog, error) {
	if cfg.CatalogPath == "" {
		return questionnaire.DefaultCatalog(), nil
	}
	return questionnaire.LoadCatalog(cfg.CatalogPath)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./brandgest.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "brandgest:", err)
		os.Exit(1)
	}
}
