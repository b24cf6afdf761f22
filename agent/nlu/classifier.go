package nlu

import (
	"context"
	"strings"

	"github.com/bytedance/sonic"
	openaisdk "github.com/openai/openai-go"
	"github.com/rs/zerolog/log"

	contractx "github.com/voxgate/voxgate/agent/contract"
)

// Intent and sentiment labels emitted by the classifiers. Transfer rules
// key off the intent labels.
const (
	IntentBooking = "booking"
	IntentSupport = "support"
	IntentSales   = "sales"
	IntentHuman   = "human"
	IntentGeneral = "general"

	SentimentPositive   = "positive"
	SentimentNeutral    = "neutral"
	SentimentFrustrated = "frustrated"
	SentimentAngry      = "angry"
)

// RuleClassifier labels utterances from keyword tables. Deterministic and
// dependency-free, used offline and as the degradation path for the LLM
// classifier.
type RuleClassifier struct{}

var _ contractx.Classifier = (*RuleClassifier)(nil)

var intentKeywords = []struct {
	intent   string
	keywords []string
}{
	{IntentHuman, []string{"human", "real person", "representative", "speak to someone", "operator"}},
	{IntentBooking, []string{"appointment", "book", "schedule", "reschedule", "availability", "cancel my"}},
	{IntentSupport, []string{"broken", "not working", "problem", "issue", "error", "help with", "fix"}},
	{IntentSales, []string{"price", "pricing", "cost", "how much", "plan", "buy", "purchase", "upgrade"}},
}

var sentimentKeywords = []struct {
	sentiment string
	keywords  []string
}{
	{SentimentAngry, []string{"furious", "unacceptable", "terrible", "worst", "ridiculous", "angry"}},
	{SentimentFrustrated, []string{"frustrated", "annoyed", "again and again", "still not", "third time", "fed up"}},
	{SentimentPositive, []string{"thank", "great", "perfect", "awesome", "wonderful"}},
}

func (RuleClassifier) Classify(ctx context.Context, text string, history []contractx.Turn) (contractx.Classification, error) {
	lower := strings.ToLower(text)

	out := contractx.Classification{Sentiment: SentimentNeutral}
	for _, entry := range intentKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				out.Intent = entry.intent
				break
			}
		}
		if out.Intent != "" {
			break
		}
	}
	for _, entry := range sentimentKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				out.Sentiment = entry.sentiment
				break
			}
		}
		if out.Sentiment != SentimentNeutral {
			break
		}
	}
	return out, nil
}

const classifyPrompt = `Classify the user's message. Respond with only a JSON object:
{"intent": one of [booking, support, sales, human, general], "sentiment": one of [positive, neutral, frustrated, angry]}`

// LLMClassifier asks a chat completion endpoint for intent and sentiment.
// Any failure degrades to the rule classifier rather than erroring the turn.
type LLMClassifier struct {
	client   *openaisdk.Client
	model    string
	fallback RuleClassifier
}

var _ contractx.Classifier = (*LLMClassifier)(nil)

func NewLLMClassifier(client *openaisdk.Client, model string) *LLMClassifier {
	return &LLMClassifier{client: client, model: model}
}

func (c *LLMClassifier) Classify(ctx context.Context, text string, history []contractx.Turn) (contractx.Classification, error) {
	if c.client == nil {
		return c.fallback.Classify(ctx, text, history)
	}

	resp, err := c.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(c.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(classifyPrompt),
			openaisdk.UserMessage(text),
		},
		Temperature: openaisdk.Float(0),
	})
	if err != nil || len(resp.Choices) == 0 {
		log.Warn().Err(err).Msg("llm classification failed, using rule classifier")
		return c.fallback.Classify(ctx, text, history)
	}

	var out contractx.Classification
	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.Trim(raw, "` \n")
	if err := sonic.UnmarshalString(raw, &out); err != nil {
		log.Warn().Err(err).Str("raw", raw).Msg("unparseable classification, using rule classifier")
		return c.fallback.Classify(ctx, text, history)
	}
	if !validIntent(out.Intent) {
		out.Intent = ""
	}
	if !validSentiment(out.Sentiment) {
		out.Sentiment = SentimentNeutral
	}
	return out, nil
}

func validIntent(s string) bool {
	switch s {
	case IntentBooking, IntentSupport, IntentSales, IntentHuman, IntentGeneral:
		return true
	}
	return false
}

func validSentiment(s string) bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentFrustrated, SentimentAngry:
		return true
	}
	return false
}
