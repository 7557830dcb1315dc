// Package workflow sequences dependent completion calls into a contract
// draft. The pipeline is an explicit state machine over four stages;
// each stage feeds its full output into the next, and any failure aborts
// the remainder with a stage-tagged error. Partial results are never
// returned as success.
package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmoreno/clauseforge/llm"
)

// Stage is one step of the drafting pipeline.
type Stage string

const (
	StageRequirements Stage = "Requirements"
	StageStructure    Stage = "Structure"
	StageDraft        Stage = "Draft"
	StageSummary      Stage = "Summary"
)

// stageOrder is the fixed transition sequence of the pipeline.
var stageOrder = []Stage{StageRequirements, StageStructure, StageDraft, StageSummary}

// StageError reports which pipeline stage failed and why. Earlier stage
// outputs are discarded when it is returned.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("workflow stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Request describes the contract to draft.
type Request struct {
	ContractType string `json:"contract_type"`
	PartyA       string `json:"party_a"`
	PartyB       string `json:"party_b"`
	Jurisdiction string `json:"jurisdiction"`
	Scope        string `json:"scope_short"`
	PaymentTerms string `json:"payment_terms"`
	RiskProfile  string `json:"risk_profile"` // conservative, balanced, aggressive
}

// Result holds the outputs of a completed pipeline run. All four fields
// are populated or the run failed.
type Result struct {
	RequirementsAnalysis string `json:"requirements_analysis"`
	StructureOutline     string `json:"structure_analysis"`
	DraftContent         string `json:"content"`
	ExecutiveSummary     string `json:"summary"`
}

const (
	draftTemperature   = 0.3
	draftMaxTokens     = 4000
	summaryTemperature = 0.2
	summaryMaxTokens   = 200

	// summaryInputLimit bounds how much of the draft the summary stage
	// sees.
	summaryInputLimit = 1000
)

const systemInstruction = "You are an expert legal AI assistant. Provide thorough, accurate, and professional responses."

var riskProfiles = map[string]bool{
	"conservative": true,
	"balanced":     true,
	"aggressive":   true,
}

// Validate rejects malformed requests before any external call. A
// missing risk profile defaults to balanced.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.ContractType) == "" {
		return fmt.Errorf("contract type is required")
	}
	if strings.TrimSpace(r.PartyA) == "" || strings.TrimSpace(r.PartyB) == "" {
		return fmt.Errorf("both party names are required")
	}
	if strings.TrimSpace(r.Jurisdiction) == "" {
		return fmt.Errorf("jurisdiction is required")
	}
	if r.RiskProfile == "" {
		r.RiskProfile = "balanced"
	}
	if !riskProfiles[r.RiskProfile] {
		return fmt.Errorf("unknown risk profile %q", r.RiskProfile)
	}
	return nil
}

// Orchestrator runs drafting pipelines and single-shot transforms.
// It holds no state across invocations; session state lives elsewhere.
type Orchestrator struct {
	provider llm.Provider
}

// New creates an Orchestrator on the given completion provider.
func New(provider llm.Provider) *Orchestrator {
	return &Orchestrator{provider: provider}
}

// Draft runs the four-stage pipeline Requirements → Structure → Draft →
// Summary. A stage runs only if the previous returned non-empty content;
// the first failure aborts the run with a *StageError naming the stage.
func (o *Orchestrator) Draft(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	outputs := make(map[Stage]string, len(stageOrder))
	for _, stage := range stageOrder {
		prompt := o.stagePrompt(stage, req, outputs)
		temperature, maxTokens := draftTemperature, draftMaxTokens
		if stage == StageSummary {
			temperature, maxTokens = summaryTemperature, summaryMaxTokens
		}

		content, err := llm.Complete(ctx, o.provider, systemInstruction, prompt, temperature, maxTokens)
		if err != nil {
			return nil, &StageError{Stage: stage, Err: err}
		}
		outputs[stage] = content
	}

	return &Result{
		RequirementsAnalysis: outputs[StageRequirements],
		StructureOutline:     outputs[StageStructure],
		DraftContent:         outputs[StageDraft],
		ExecutiveSummary:     outputs[StageSummary],
	}, nil
}

func (o *Orchestrator) stagePrompt(stage Stage, req Request, outputs map[Stage]string) string {
	switch stage {
	case StageRequirements:
		return fmt.Sprintf(`As a legal requirements analyst, analyze these contract requirements:

Contract Type: %s
Parties: %s and %s
Scope: %s
Payment Terms: %s
Jurisdiction: %s
Risk Profile: %s

Provide a structured analysis including:
1. Contract complexity assessment
2. Key provisions needed
3. Risk factors to consider
4. Legal considerations for this jurisdiction`,
			req.ContractType, req.PartyA, req.PartyB, req.Scope, req.PaymentTerms, req.Jurisdiction, req.RiskProfile)

	case StageStructure:
		return fmt.Sprintf(`Based on this analysis, create a detailed contract structure:

%s

Provide:
1. Contract title and sections
2. Detailed clause outline
3. Special provisions needed
4. Order of clauses for optimal flow`,
			outputs[StageRequirements])

	case StageDraft:
		return fmt.Sprintf(`Create a complete professional contract with this structure:

%s

Requirements:
- Contract Type: %s
- Parties: %s and %s
- Scope: %s
- Payment Terms: %s
- Jurisdiction: %s
- Risk Profile: %s

Include proper legal language, defined terms, and comprehensive clauses.
Make it professional and legally sound.`,
			outputs[StageStructure], req.ContractType, req.PartyA, req.PartyB, req.Scope, req.PaymentTerms, req.Jurisdiction, req.RiskProfile)

	case StageSummary:
		draft := outputs[StageDraft]
		if len(draft) > summaryInputLimit {
			draft = draft[:summaryInputLimit]
		}
		return fmt.Sprintf("Provide a 3-line executive summary of this contract:\n\n%s", draft)
	}
	return ""
}
