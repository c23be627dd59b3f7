// Package planner interprets model responses: classifying them as direct
// SQL, a multi-step query plan, or a clarification request, and executing
// plans against the database and the in-memory evaluator.
package planner

import (
	"encoding/json"
	"strings"
)

// Kind identifies what a model response turned out to be.
type Kind int

const (
	// KindSimpleSQL is a direct SQL statement to run as-is.
	KindSimpleSQL Kind = iota
	// KindMultiStepPlan is a structured plan of dependent steps.
	KindMultiStepPlan
	// KindClarification means the model needs more information from the user.
	KindClarification
	// KindMalformed is valid JSON that matches no recognized instruction.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindSimpleSQL:
		return "simple_sql"
	case KindMultiStepPlan:
		return "multi_step_plan"
	case KindClarification:
		return "clarification"
	default:
		return "malformed"
	}
}

// Step is one unit of work in a plan. Queries referencing @variables run
// against earlier step outputs in memory; all others run on the database.
type Step struct {
	Step           int    `json:"step"`
	Description    string `json:"description"`
	Query          string `json:"query"`
	OutputVariable string `json:"output_variable"`
}

// Presentation selects which step outputs form the final answer and in what
// order.
type Presentation struct {
	Type         string   `json:"type"`
	ResultsOrder []string `json:"results_order"`
}

// PresentationMultipleResults is the presentation type that returns several
// named result sets.
const PresentationMultipleResults = "multiple_results"

// Plan is a parsed multi-step query plan.
type Plan struct {
	Steps             []Step       `json:"plan"`
	FinalPresentation Presentation `json:"final_presentation"`
}

// Descriptor is the classification of one model response.
type Descriptor struct {
	Kind          Kind
	SQL           string // set for KindSimpleSQL
	Plan          *Plan  // set for KindMultiStepPlan
	Clarification string // set for KindClarification
	Raw           string // the response as classified
}

// Classify decides how a model response should be handled. Anything that
// does not read as JSON is treated as SQL, including responses that look
// like JSON but fail to parse; recognized objects dispatch on their keys.
func Classify(response string) Descriptor {
	trimmed := strings.TrimSpace(response)
	if !strings.HasPrefix(trimmed, "{") {
		return Descriptor{Kind: KindSimpleSQL, SQL: trimmed, Raw: response}
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &keys); err != nil {
		return Descriptor{Kind: KindSimpleSQL, SQL: trimmed, Raw: response}
	}

	if _, ok := keys["plan"]; ok {
		var plan Plan
		if err := json.Unmarshal([]byte(trimmed), &plan); err != nil {
			return Descriptor{Kind: KindMalformed, Raw: response}
		}
		return Descriptor{Kind: KindMultiStepPlan, Plan: &plan, Raw: response}
	}

	if raw, ok := keys["clarification_needed"]; ok {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return Descriptor{Kind: KindMalformed, Raw: response}
		}
		return Descriptor{Kind: KindClarification, Clarification: text, Raw: response}
	}

	return Descriptor{Kind: KindMalformed, Raw: response}
}
