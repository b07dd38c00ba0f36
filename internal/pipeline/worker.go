package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dgallion1/brandgest/internal/document"
	"github.com/dgallion1/brandgest/internal/pathstore"
	"github.com/dgallion1/brandgest/internal/questionnaire"
	"github.com/dgallion1/brandgest/internal/strategy"
)

// Generator produces a strategy from a brief and questionnaire records.
type Generator interface {
	Generate(ctx context.Context, brief strategy.Brief, records []questionnaire.Record, onAnswer func()) (*strategy.Result, error)
}

// Archiver persists completed strategies.
type Archiver interface {
	Save(ctx context.Context, brandSlug string, rec pathstore.StrategyRecord) (string, error)
}

// Worker processes a single strategy job.
type Worker struct {
	catalog    *questionnaire.Catalog
	generator  Generator
	archive    Archiver
	parserOpts document.Options
	log        *zap.Logger
}

// NewWorker builds a worker. archive may be nil.
func NewWorker(catalog *questionnaire.Catalog, gen Generator, archive Archiver, parserOpts document.Options, log *zap.Logger) *Worker {
	return &Worker{
		catalog:    catalog,
		generator:  gen,
		archive:    archive,
		parserOpts: parserOpts,
		log:        log,
	}
}

// Process runs the full strategy pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With(zap.String("job_id", job.ID), zap.String("source", string(job.Source)))
	start := time.Now()

	records := job.Records()
	if job.Source == SourceDocument {
		// Phase 1: Parse
		job.SetStatus(StatusParsing, "parsing")
		p, err := document.ForFile(job.Filename, w.parserOpts)
		if err != nil {
			log.Error("unsupported format", zap.Error(err))
			job.Fail("parsing", err.Error())
			return
		}
		doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
		if err != nil {
			log.Error("parse failed", zap.Error(err))
			job.Fail("parsing", fmt.Sprintf("parse: %s", err))
			return
		}

		// Phase 2: Extract
		job.SetStatus(StatusExtracting, "extracting")
		records = questionnaire.Extract(doc.Paragraphs, w.catalog)
		log.Info("extracted questionnaire", zap.Int("paragraphs", len(doc.Paragraphs)), zap.Int("records", len(records)))
	}

	job.SetRecords(records)
	if len(records) == 0 {
		log.Warn("no questionnaire answers found")
		job.Fail("extracting", strategy.ErrNoRecords.Error())
		return
	}

	// Phase 3: Answer questions, then generate the strategy.
	job.SetStatus(StatusAnswering, "answering")
	brief := job.Brief()
	result, err := w.generator.Generate(ctx, brief, records, job.IncrAnswered)
	if err != nil {
		log.Error("strategy generation failed", zap.Error(err))
		phase := "answering"
		if job.Snapshot().Status == StatusGenerating {
			phase = "generating"
		}
		job.Fail(phase, err.Error())
		return
	}

	// Phase 4: Archive. A failed archive write does not fail the job.
	var key string
	if w.archive != nil {
		key, err = w.archive.Save(ctx, strategy.Slugify(brief.BrandName), pathstore.StrategyRecord{
			JobID:     job.ID,
			BrandName: brief.BrandName,
			Industry:  brief.Industry,
			Source:    string(job.Source),
			Questions: len(records),
			Report:    result.Report,
			Strategy:  result.Strategy,
			CreatedAt: job.CreatedAt,
		})
		if err != nil {
			log.Error("archive write failed", zap.Error(err))
			job.AddError(fmt.Sprintf("archive: %s", err))
			key = ""
		}
	}

	job.Complete(result, key)
	log.Info("strategy completed",
		zap.Int("questions", len(records)),
		zap.Int64("input_tokens", result.Usage.InputTokens),
		zap.Int64("output_tokens", result.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)),
	)
}
