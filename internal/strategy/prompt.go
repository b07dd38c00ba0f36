package strategy

import (
	"fmt"
	"strings"

	"github.com/dgallion1/brandgest/internal/retrieval"
)

const answerSystemPrompt = `The user is a marketing agent who needs answers to questions about a brand. The questions and their answers are in the context provided. Answer the question using the context exactly as written and accurately. Do not make up answers or add information that is not in the context.`

const strategyInstructions = `Based on the provided answers to the questionnaire, generate a detailed marketing strategy and campaign.

1. **Brand Insights**: Analyze the market dilemma, solutions, product offerings, and credibility. Identify core opportunities and how the brand differentiates itself.
2. **Competitor Analysis**: Examine main competitors, their strengths, weaknesses, and market positions. Highlight the brand's competitive advantage.
3. **Target Audience**: Define primary and secondary target audiences based on the demographics and psychographics. Outline strategies for engaging these audiences.
4. **Marketing Strategy**:
    - **Brand Positioning**: Summarize the brand's market position and unique value proposition.
    - **Engagement Channels**: Identify the most effective channels for reaching the target audience.
    - **Content and Messaging**: Suggest key messages that resonate with the brand promise and audience's expectations.
5. **Campaign Concept**: Propose a campaign that embodies strategic goals, including creative titles, objectives, key activities, and expected outcomes.
6. **Implementation Plan**: Outline steps for executing the marketing strategy and campaign, including timelines and key milestones.
7. **Evaluation Metrics**: Specify how to measure the success of the marketing strategy and campaign.

Generate the marketing strategy and campaign in a cohesive narrative format.`

// BuildAnswerPrompt frames one question against its retrieved context.
func BuildAnswerPrompt(question string, hits []retrieval.Hit) string {
	var sb strings.Builder
	sb.WriteString("===========================\n\n")
	for _, h := range hits {
		sb.WriteString(h.Content)
	}
	sb.WriteString("Question: ")
	sb.WriteString(question)
	return sb.String()
}

// BuildStrategySystem positions the model as the brand itself.
func BuildStrategySystem(b Brief) string {
	return fmt.Sprintf("You are a brand called %q, focusing on innovation and leadership within the %q sector.", b.BrandName, b.Industry)
}

// BuildStrategyPrompt appends the questionnaire report to the strategy brief.
func BuildStrategyPrompt(report string) string {
	var sb strings.Builder
	sb.WriteString(strategyInstructions)
	sb.WriteString("\n\n---\nQuestionnaire answers:\n---\n")
	sb.WriteString(report)
	return sb.String()
}
