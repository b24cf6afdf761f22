package nlu

import (
	"context"
	"testing"
)

func TestRuleClassifierIntents(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text      string
		intent    string
		sentiment string
	}{
		{"I'd like to book an appointment", IntentBooking, SentimentNeutral},
		{"can you check availability for tuesday", IntentBooking, SentimentNeutral},
		{"my unit is broken and not working", IntentSupport, SentimentNeutral},
		{"how much does the standard plan cost", IntentSales, SentimentNeutral},
		{"let me speak to someone, a real person", IntentHuman, SentimentNeutral},
		{"thank you, that was perfect", "", SentimentPositive},
		{"this is the third time, I'm fed up", "", SentimentFrustrated},
		{"this is ridiculous and unacceptable", "", SentimentAngry},
		{"nice weather today", "", SentimentNeutral},
	}

	c := RuleClassifier{}
	for _, tc := range cases {
		got, err := c.Classify(context.Background(), tc.text, nil)
		if err != nil {
			t.Fatalf("Classify(%q) error = %v", tc.text, err)
		}
		if got.Intent != tc.intent {
			t.Fatalf("Classify(%q) intent = %q, want %q", tc.text, got.Intent, tc.intent)
		}
		if got.Sentiment != tc.sentiment {
			t.Fatalf("Classify(%q) sentiment = %q, want %q", tc.text, got.Sentiment, tc.sentiment)
		}
	}
}

func TestRuleClassifierHumanOutranksOtherIntents(t *testing.T) {
	t.Parallel()

	c := RuleClassifier{}
	got, err := c.Classify(context.Background(), "I want to book but only with a real person", nil)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got.Intent != IntentHuman {
		t.Fatalf("human request must take priority, got %q", got.Intent)
	}
}

func TestLLMClassifierWithoutClientDegrades(t *testing.T) {
	t.Parallel()

	c := NewLLMClassifier(nil, "any-model")
	got, err := c.Classify(context.Background(), "I need to schedule an appointment", nil)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got.Intent != IntentBooking {
		t.Fatalf("expected rule fallback, got %q", got.Intent)
	}
}
