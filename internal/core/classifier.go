package core

import (
	"context"
	"fmt"
	"regexp"
)

// The model is instructed to end its reply with a fixed-format decision
// marker; anything else counts as a failed attempt.
var decisionMarker = regexp.MustCompile(`\*\*Decision\*\*:\s*\*(Yes|No)\*`)

// IntentClassifier decides whether a user query needs product context
// retrieved before answering.
type IntentClassifier struct {
	pool []Generator
}

func NewIntentClassifier(pool []Generator) *IntentClassifier {
	return &IntentClassifier{pool: pool}
}

// Classify returns 1 when product context is needed, 0 otherwise. Clients
// are tried in pool order; a reply without the decision marker fails that
// attempt. An exhausted pool defaults to 0 — answering without context is
// the safe degradation, not an error.
func (c *IntentClassifier) Classify(ctx context.Context, query, historyText string) int {
	prompt := buildIntentPrompt(historyText, query)

	decision, _ := failover(ctx, c.pool, 0, func(ctx context.Context, g Generator) (int, error) {
		reply, err := g.Generate(ctx, prompt)
		if err != nil {
			return 0, err
		}
		return parseDecision(reply)
	})
	return decision
}

func parseDecision(reply string) (int, error) {
	m := decisionMarker.FindStringSubmatch(reply)
	if m == nil {
		return 0, fmt.Errorf("no decision marker in reply")
	}
	if m[1] == "Yes" {
		return 1, nil
	}
	return 0, nil
}
