package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgallion1/brandgest/internal/document"
	"github.com/dgallion1/brandgest/internal/questionnaire"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Print the question/answer records found in a questionnaire file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}

		p, err := document.ForFile(path, document.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext})
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return eris.Wrapf(err, "open %s", path)
		}
		defer f.Close()

		doc, err := p.Parse(f, filepath.Base(path))
		if err != nil {
			return eris.Wrapf(err, "parse %s", path)
		}

		records := questionnaire.Extract(doc.Paragraphs, catalog)
		logger.Debug("extracted", zap.String("file", path), zap.Int("records", len(records)))

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
