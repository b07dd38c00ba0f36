package strategy

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dgallion1/brandgest/internal/llm"
	"github.com/dgallion1/brandgest/internal/questionnaire"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

func records() []questionnaire.Record {
	return []questionnaire.Record{
		{Question: "What products/service do you offer to solve this?", Answer: "Oat-based snack bars."},
		{Question: "How can we best reach them (main channels)?", Answer: "Instagram and gyms."},
	}
}

func isAnswerFor(question string) func(llm.Request) bool {
	return func(r llm.Request) bool {
		return r.System == answerSystemPrompt && strings.HasSuffix(r.Prompt, "Question: "+question)
	}
}

func TestGenerate_FullFlow(t *testing.T) {
	client := &mockClient{}
	recs := records()
	client.On("Complete", mock.Anything, mock.MatchedBy(isAnswerFor(recs[0].Question))).
		Return(&llm.Response{Text: " Snack bars. ", Usage: llm.Usage{InputTokens: 10, OutputTokens: 2}}, nil).Once()
	client.On("Complete", mock.Anything, mock.MatchedBy(isAnswerFor(recs[1].Question))).
		Return(&llm.Response{Text: "Instagram.", Usage: llm.Usage{InputTokens: 10, OutputTokens: 2}}, nil).Once()
	client.On("Complete", mock.Anything, mock.MatchedBy(func(r llm.Request) bool {
		return strings.Contains(r.System, `"Oatly Bars"`) && strings.Contains(r.System, `"Food"`)
	})).Return(&llm.Response{Text: "A strategy.", Usage: llm.Usage{InputTokens: 100, OutputTokens: 50}}, nil).Once()

	gen := NewGenerator(client, DefaultConfig(), zap.NewNop())
	var answered atomic.Int32
	res, err := gen.Generate(context.Background(), Brief{BrandName: " Oatly Bars ", Industry: "Food"}, recs, func() { answered.Add(1) })
	require.NoError(t, err)

	assert.Equal(t, int32(2), answered.Load())
	assert.Equal(t, "A strategy.", res.Strategy)
	assert.Equal(t,
		"Q1- What products/service do you offer to solve this?\nSnack bars.\n\n"+
			"Q2- How can we best reach them (main channels)?\nInstagram.\n\n",
		res.Report)
	assert.Equal(t, llm.Usage{InputTokens: 120, OutputTokens: 54}, res.Usage)
	require.Len(t, res.Answers, 2)
	assert.Equal(t, []string{"doc_0"}, res.Answers[0].Sources)
	assert.Equal(t, []string{"doc_1"}, res.Answers[1].Sources)
	client.AssertExpectations(t)
}

func TestGenerate_StrategyPromptCarriesReport(t *testing.T) {
	client := &mockClient{}
	client.On("Complete", mock.Anything, mock.MatchedBy(func(r llm.Request) bool { return r.System == answerSystemPrompt })).
		Return(&llm.Response{Text: "ans"}, nil)
	var strategyReq llm.Request
	client.On("Complete", mock.Anything, mock.MatchedBy(func(r llm.Request) bool { return r.System != answerSystemPrompt })).
		Run(func(args mock.Arguments) { strategyReq = args.Get(1).(llm.Request) }).
		Return(&llm.Response{Text: "done"}, nil)

	cfg := DefaultConfig()
	_, err := NewGenerator(client, cfg, zap.NewNop()).Generate(context.Background(), Brief{BrandName: "B", Industry: "I"}, records(), nil)
	require.NoError(t, err)

	assert.Equal(t, cfg.StrategyModel, strategyReq.Model)
	assert.Equal(t, cfg.StrategyMaxTokens, strategyReq.MaxTokens)
	require.NotNil(t, strategyReq.Temperature)
	assert.InDelta(t, 0.05, *strategyReq.Temperature, 1e-9)
	assert.Contains(t, strategyReq.Prompt, "**Campaign Concept**")
	assert.Contains(t, strategyReq.Prompt, "Q1- What products/service do you offer to solve this?\nans\n\n")
}

func TestGenerate_InvalidBrief(t *testing.T) {
	client := &mockClient{}
	_, err := NewGenerator(client, DefaultConfig(), zap.NewNop()).Generate(context.Background(), Brief{}, records(), nil)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Please enter the brand name.", "Please enter the industry of your brand."}, verr.Problems)
	client.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestGenerate_NoRecords(t *testing.T) {
	client := &mockClient{}
	_, err := NewGenerator(client, DefaultConfig(), zap.NewNop()).Generate(context.Background(), Brief{BrandName: "B", Industry: "I"}, nil, nil)
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestAnswerQuestions_PermanentErrorFails(t *testing.T) {
	client := &mockClient{}
	client.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("invalid model"))

	_, _, err := NewGenerator(client, DefaultConfig(), zap.NewNop()).AnswerQuestions(context.Background(), records(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model")
}

func TestAnswerQuestions_PromptUsesRetrievedContext(t *testing.T) {
	client := &mockClient{}
	var prompts []string
	client.On("Complete", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			prompts = append(prompts, args.Get(1).(llm.Request).Prompt)
		}).
		Return(&llm.Response{Text: "x"}, nil)

	cfg := DefaultConfig()
	cfg.MaxConcurrent = 1
	recs := records()[:1]
	_, _, err := NewGenerator(client, cfg, zap.NewNop()).AnswerQuestions(context.Background(), recs, nil)
	require.NoError(t, err)

	require.Len(t, prompts, 1)
	assert.Equal(t,
		"===========================\n\n"+
			"What products/service do you offer to solve this?\nOat-based snack bars.\n\n"+
			"Question: What products/service do you offer to solve this?",
		prompts[0])
}

func TestBuildReport_Empty(t *testing.T) {
	assert.Equal(t, "", BuildReport(nil))
}
