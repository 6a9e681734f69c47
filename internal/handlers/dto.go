package handlers

import (
	"encoding/hex"
	"time"

	"github.com/gorilla/schema"

	"github.com/vancomm/aplenty-server/internal/config"
	"github.com/vancomm/aplenty-server/internal/repository"
	"github.com/vancomm/aplenty-server/internal/workflow"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return dec
}

type EvaluateParams struct {
	Entry    string `schema:"entry"`
	Low      *int   `schema:"low"`
	High     *int   `schema:"high"`
	Parallel bool   `schema:"parallel"`
}

func ParseEvaluateParams(src map[string][]string, cfg *config.App) (EvaluateParams, error) {
	var params EvaluateParams
	if err := decoder.Decode(&params, src); err != nil {
		return params, err
	}
	if params.Entry == "" {
		params.Entry = cfg.EntryRule
	}
	if params.Low == nil {
		params.Low = &cfg.BoxLow
	}
	if params.High == nil {
		params.High = &cfg.BoxHigh
	}
	if err := workflow.CheckBounds(*params.Low, *params.High); err != nil {
		return params, err
	}
	return params, nil
}

func (p EvaluateParams) Box() workflow.Box {
	return workflow.FullBox(*p.Low, *p.High)
}

type EvaluationDTO struct {
	EvaluationID         string       `json:"evaluation_id,omitempty"`
	RuleSet              string       `json:"rule_set,omitempty"`
	EntryRule            string       `json:"entry_rule"`
	Box                  workflow.Box `json:"box"`
	AcceptedCombinations int64        `json:"accepted_combinations"`
	AcceptedRatingSum    int64        `json:"accepted_rating_sum"`
	Parallel             bool         `json:"parallel"`
	Rules                int          `json:"rules,omitempty"`
	Parts                int          `json:"parts,omitempty"`
	DurationUs           int64        `json:"duration_us"`
	CreatedAt            *int64       `json:"created_at,omitempty"`
}

func NewEvaluationDTO(ruleSet string, e *repository.Evaluation) EvaluationDTO {
	createdAt := e.CreatedAt.UnixMilli()
	return EvaluationDTO{
		EvaluationID:         e.EvaluationID.String(),
		RuleSet:              ruleSet,
		EntryRule:            e.EntryRule,
		Box:                  e.Box,
		AcceptedCombinations: e.AcceptedCombinations,
		AcceptedRatingSum:    e.AcceptedRatingSum,
		Parallel:             e.Parallel,
		DurationUs:           e.Duration.Microseconds(),
		CreatedAt:            &createdAt,
	}
}

type RuleSetDTO struct {
	Name      string  `json:"name"`
	Digest    string  `json:"digest"`
	Rules     int     `json:"rules"`
	Parts     int     `json:"parts"`
	Author    *string `json:"author,omitempty"`
	Source    string  `json:"source,omitempty"`
	CreatedAt int64   `json:"created_at"`
}

func NewRuleSetDTO(rs *repository.RuleSet) RuleSetDTO {
	return RuleSetDTO{
		Name:      rs.Name,
		Digest:    hex.EncodeToString(rs.Digest),
		Rules:     rs.RuleCount,
		Parts:     rs.PartCount,
		Author:    rs.Author,
		Source:    rs.Source,
		CreatedAt: rs.CreatedAt.UnixMilli(),
	}
}

type RegionDTO struct {
	workflow.Region
	Volume int64 `json:"volume"`
}

type TraceSummaryDTO struct {
	Regions  int   `json:"regions"`
	Accepted int64 `json:"accepted"`
	Rejected int64 `json:"rejected"`
}

type evaluation struct {
	answer   workflow.Answer
	duration time.Duration
}
