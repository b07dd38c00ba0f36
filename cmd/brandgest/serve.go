package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgallion1/brandgest/internal/api"
	"github.com/dgallion1/brandgest/internal/document"
	"github.com/dgallion1/brandgest/internal/llm"
	"github.com/dgallion1/brandgest/internal/pathstore"
	"github.com/dgallion1/brandgest/internal/pipeline"
	"github.com/dgallion1/brandgest/internal/strategy"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != "" {
			cfg.Port = servePort
		}
		if err := cfg.Validate(); err != nil {
			return eris.Wrap(err, "invalid configuration")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		catalog, err := loadCatalog()
		if err != nil {
			return err
		}

		// Initialize clients.
		claude := llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.LLMRequestsPerSecond)
		gen := strategy.NewGenerator(claude, strategy.Config{
			AnswerModel:         cfg.AnswerModel,
			AnswerMaxTokens:     cfg.AnswerMaxTokens,
			AnswerTemperature:   cfg.AnswerTemperature,
			StrategyModel:       cfg.StrategyModel,
			StrategyMaxTokens:   cfg.StrategyMaxTokens,
			StrategyTemperature: cfg.StrategyTemperature,
			TopK:                cfg.RetrievalTopK,
			MaxConcurrent:       cfg.MaxConcurrentAnswers,
		}, logger)

		// The archive is optional. Keep both interfaces nil when it is off.
		var (
			archiver pipeline.Archiver
			archive  api.StrategyArchive
			ps       *pathstore.Client
		)
		if cfg.PathstoreURL != "" {
			ps = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
			defer ps.Close()
			a := pathstore.NewArchive(ps)
			archiver, archive = a, a
		}

		// Initialize pipeline.
		orch := pipeline.NewOrchestrator(pipeline.Options{
			WorkerCount:  cfg.WorkerCount,
			MaxQueueSize: cfg.MaxQueueSize,
			JobTTL:       cfg.JobTTL,
			Parser:       document.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
		}, catalog, gen, archiver, logger)
		orch.Start(ctx)

		// Initialize HTTP server.
		srv := api.NewServer(orch, archive, claude.Stats, logger, cfg)
		httpServer := &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      srv,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Graceful shutdown.
		go func() {
			<-ctx.Done()
			logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("http shutdown", zap.Error(err))
			}
		}()

		logger.Info("starting brandgest",
			zap.String("port", cfg.Port),
			zap.Int("questions", len(catalog.Questions())),
			zap.Bool("archive", archive != nil),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			orch.Stop()
			return eris.Wrap(err, "server listen")
		}
		orch.Stop()
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
