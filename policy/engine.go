package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Engine evaluates the banned word policy against message content.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.moderation.banned_word"),
		rego.Module("moderation.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// BannedWord returns the first wordlist entry contained in content, or ""
// when nothing matches. Matching is case insensitive and the match order is
// deterministic regardless of wordlist order.
func (e *Engine) BannedWord(ctx context.Context, content string, wordlist []string) (string, error) {
	input := map[string]interface{}{
		"content":  content,
		"wordlist": wordlist,
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return "", nil
	}

	word, ok := results[0].Expressions[0].Value.(string)
	if !ok {
		return "", fmt.Errorf("policy returned %T, expected string", results[0].Expressions[0].Value)
	}
	return word, nil
}

// DefaultPolicy is the default banned word policy content.
const DefaultPolicy = `
package moderation

import rego.v1

default banned_word := ""

matches := sort([w | some w in input.wordlist; contains(lower(input.content), lower(w))])

banned_word := matches[0] if count(matches) > 0
`
