package strategy

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/brandgest/internal/llm"
	"github.com/dgallion1/brandgest/internal/questionnaire"
	"github.com/dgallion1/brandgest/internal/retrieval"
)

// ErrNoRecords is returned when there are no answers to build a strategy from.
var ErrNoRecords = eris.New("no questionnaire answers to work with")

// Config controls models and fan-out for a Generator.
type Config struct {
	AnswerModel         string
	AnswerMaxTokens     int64
	AnswerTemperature   float64
	StrategyModel       string
	StrategyMaxTokens   int64
	StrategyTemperature float64
	TopK                int
	MaxConcurrent       int
}

// DefaultConfig mirrors the service defaults.
func DefaultConfig() Config {
	return Config{
		AnswerModel:         "claude-haiku-4-5-20251001",
		AnswerMaxTokens:     4000,
		AnswerTemperature:   0.0,
		StrategyModel:       "claude-sonnet-4-5-20250929",
		StrategyMaxTokens:   3000,
		StrategyTemperature: 0.05,
		TopK:                1,
		MaxConcurrent:       4,
	}
}

// Answer is a questionnaire question paired with the model's grounded answer.
type Answer struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Sources  []string `json:"sources"`
}

// Result is the output of a full strategy run.
type Result struct {
	Answers  []Answer  `json:"answers"`
	Report   string    `json:"report"`
	Strategy string    `json:"strategy"`
	Usage    llm.Usage `json:"usage"`
}

// Generator turns questionnaire records into a marketing strategy.
type Generator struct {
	client llm.Client
	cfg    Config
	log    *zap.Logger
}

func NewGenerator(client llm.Client, cfg Config, log *zap.Logger) *Generator {
	def := DefaultConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.AnswerMaxTokens <= 0 {
		cfg.AnswerMaxTokens = def.AnswerMaxTokens
	}
	if cfg.StrategyMaxTokens <= 0 {
		cfg.StrategyMaxTokens = def.StrategyMaxTokens
	}
	return &Generator{client: client, cfg: cfg, log: log}
}

// AnswerQuestions asks the answer model each record's question against the
// retrieved context. Answers keep record order. onAnswer, if set, is called
// once per finished question and must be safe for concurrent use.
func (g *Generator) AnswerQuestions(ctx context.Context, records []questionnaire.Record, onAnswer func()) ([]Answer, llm.Usage, error) {
	if len(records) == 0 {
		return nil, llm.Usage{}, ErrNoRecords
	}

	index := retrieval.NewIndex(records)
	answers := make([]Answer, len(records))
	usages := make([]llm.Usage, len(records))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.MaxConcurrent)
	for i, rec := range records {
		eg.Go(func() error {
			hits := index.Search(rec.Question, g.cfg.TopK)
			req := llm.Request{
				Model:       g.cfg.AnswerModel,
				System:      answerSystemPrompt,
				Prompt:      BuildAnswerPrompt(rec.Question, hits),
				MaxTokens:   g.cfg.AnswerMaxTokens,
				Temperature: llm.Temperature(g.cfg.AnswerTemperature),
			}
			resp, err := g.complete(egCtx, req, zap.Int("question", i))
			if err != nil {
				return eris.Wrapf(err, "answer question %d", i+1)
			}

			sources := make([]string, 0, len(hits))
			for _, h := range hits {
				sources = append(sources, h.ID)
			}
			answers[i] = Answer{Question: rec.Question, Answer: strings.TrimSpace(resp.Text), Sources: sources}
			usages[i] = resp.Usage
			if onAnswer != nil {
				onAnswer()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, llm.Usage{}, err
	}

	var total llm.Usage
	for _, u := range usages {
		total.Add(u)
	}
	return answers, total, nil
}

// BuildReport renders answers as the numbered questionnaire report.
func BuildReport(answers []Answer) string {
	var sb strings.Builder
	for i, a := range answers {
		fmt.Fprintf(&sb, "Q%d- %s\n%s\n\n", i+1, a.Question, a.Answer)
	}
	return sb.String()
}

// Generate answers every question and then writes the strategy narrative.
func (g *Generator) Generate(ctx context.Context, brief Brief, records []questionnaire.Record, onAnswer func()) (*Result, error) {
	brief = brief.Normalize()
	if err := brief.Validate(); err != nil {
		return nil, err
	}

	answers, usage, err := g.AnswerQuestions(ctx, records, onAnswer)
	if err != nil {
		return nil, err
	}
	report := BuildReport(answers)
	g.log.Debug("questionnaire report built",
		zap.Int("questions", len(answers)),
		zap.Int("estimated_tokens", retrieval.EstimateTokens(report)),
	)

	resp, err := g.complete(ctx, llm.Request{
		Model:       g.cfg.StrategyModel,
		System:      BuildStrategySystem(brief),
		Prompt:      BuildStrategyPrompt(report),
		MaxTokens:   g.cfg.StrategyMaxTokens,
		Temperature: llm.Temperature(g.cfg.StrategyTemperature),
	}, zap.String("phase", "strategy"))
	if err != nil {
		return nil, eris.Wrap(err, "generate strategy")
	}
	usage.Add(resp.Usage)

	return &Result{
		Answers:  answers,
		Report:   report,
		Strategy: strings.TrimSpace(resp.Text),
		Usage:    usage,
	}, nil
}

func (g *Generator) complete(ctx context.Context, req llm.Request, field zap.Field) (*llm.Response, error) {
	var resp *llm.Response
	err := llm.Do(ctx, func(attempt int, err error) {
		g.log.Warn("retryable llm error", field, zap.Int("attempt", attempt), zap.Error(err))
	}, func(ctx context.Context) error {
		var err error
		resp, err = g.client.Complete(ctx, req)
		return err
	})
	return resp, err
}
