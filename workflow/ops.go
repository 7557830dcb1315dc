package workflow

import (
	"context"
	"fmt"

	"github.com/dmoreno/clauseforge/llm"
)

// ExplainStyle selects the register of a clause explanation.
type ExplainStyle string

const (
	ExplainELI5      ExplainStyle = "eli5"
	ExplainTechnical ExplainStyle = "technical"
	ExplainLegalese  ExplainStyle = "legalese"
)

const (
	opTemperature = 0.3
	opMaxTokens   = 2000
)

// Explain produces a clause explanation in the requested style. Unknown
// styles fall back to legal terminology.
func (o *Orchestrator) Explain(ctx context.Context, clause string, style ExplainStyle) (string, error) {
	var prompt string
	switch style {
	case ExplainELI5:
		prompt = fmt.Sprintf("Explain this legal clause as if explaining to a 5-year-old: %s", clause)
	case ExplainTechnical:
		prompt = fmt.Sprintf("Provide a detailed technical explanation of this legal clause: %s", clause)
	default:
		prompt = fmt.Sprintf("Explain this legal clause using precise legal terminology: %s", clause)
	}
	return o.single(ctx, "Explain", prompt)
}

// SuggestRedline proposes redline changes for a clause under a risk
// profile and optional drafting instructions.
func (o *Orchestrator) SuggestRedline(ctx context.Context, clause, riskProfile, instructions string) (string, error) {
	if riskProfile == "" {
		riskProfile = "balanced"
	}
	prompt := fmt.Sprintf(`Suggest redline changes for this clause:

CLAUSE: %s
RISK PROFILE: %s
INSTRUCTIONS: %s`, clause, riskProfile, instructions)
	return o.single(ctx, "Redline", prompt)
}

// Alternatives generates safe, balanced and aggressive variants of a
// clause in one pass.
func (o *Orchestrator) Alternatives(ctx context.Context, clause string) (string, error) {
	prompt := fmt.Sprintf(`Provide 3 variants (safe, balanced, aggressive) for this clause:

ORIGINAL CLAUSE: %s`, clause)
	return o.single(ctx, "Alternatives", prompt)
}

// RiskNarrative produces a prose risk analysis of the given text.
func (o *Orchestrator) RiskNarrative(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(`Analyze the legal and business risks in this text:

%s

Provide:
1. Overall risk assessment
2. High-risk language and why
3. Compliance concerns
4. Recommendations for risk mitigation`, text)
	return o.single(ctx, "Risk", prompt)
}

// SimulateChange analyzes the impact of replacing a clause with a
// modified version.
func (o *Orchestrator) SimulateChange(ctx context.Context, original, modified string) (string, error) {
	prompt := fmt.Sprintf(`Analyze the impact of changing this legal clause:

ORIGINAL: %s

MODIFIED: %s

Provide impact analysis, risk assessment, and recommendations.`, original, modified)
	return o.single(ctx, "Simulate", prompt)
}

// single runs a one-stage transform with the shared call primitive; the
// operation name tags any failure.
func (o *Orchestrator) single(ctx context.Context, op, prompt string) (string, error) {
	content, err := llm.Complete(ctx, o.provider, systemInstruction, prompt, opTemperature, opMaxTokens)
	if err != nil {
		return "", &StageError{Stage: Stage(op), Err: err}
	}
	return content, nil
}
