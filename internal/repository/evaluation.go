package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/vancomm/aplenty-server/internal/workflow"
)

type evaluationRow struct {
	EvaluationID         pgtype.UUID `db:"evaluation_id"`
	RuleSetID            int64       `db:"rule_set_id"`
	EntryRule            string      `db:"entry_rule"`
	Box                  []byte      `db:"box"`
	AcceptedCombinations int64       `db:"accepted_combinations"`
	AcceptedRatingSum    int64       `db:"accepted_rating_sum"`
	Parallel             bool        `db:"parallel"`
	DurationUs           int64       `db:"duration_us"`
	CreatedAt            time.Time   `db:"created_at"`
}

type Evaluation struct {
	EvaluationID         uuid.UUID     `json:"evaluation_id"`
	RuleSetID            int64         `json:"-"`
	EntryRule            string        `json:"entry_rule"`
	Box                  workflow.Box  `json:"box"`
	AcceptedCombinations int64         `json:"accepted_combinations"`
	AcceptedRatingSum    int64         `json:"accepted_rating_sum"`
	Parallel             bool          `json:"parallel"`
	Duration             time.Duration `json:"duration_ns"`
	CreatedAt            time.Time     `json:"created_at"`
}

func (r evaluationRow) evaluation() (*Evaluation, error) {
	var box workflow.Box
	if err := json.Unmarshal(r.Box, &box); err != nil {
		return nil, fmt.Errorf("invalid evaluation.box: %w", err)
	}
	return &Evaluation{
		EvaluationID:         uuid.UUID(r.EvaluationID.Bytes),
		RuleSetID:            r.RuleSetID,
		EntryRule:            r.EntryRule,
		Box:                  box,
		AcceptedCombinations: r.AcceptedCombinations,
		AcceptedRatingSum:    r.AcceptedRatingSum,
		Parallel:             r.Parallel,
		Duration:             time.Duration(r.DurationUs) * time.Microsecond,
		CreatedAt:            r.CreatedAt,
	}, nil
}

type CreateEvaluationParams struct {
	RuleSetID int64
	EntryRule string
	Box       workflow.Box
	Answer    workflow.Answer
	Parallel  bool
	Duration  time.Duration
}

func (q *Queries) CreateEvaluation(
	ctx context.Context, params CreateEvaluationParams,
) (*Evaluation, error) {
	box, err := json.Marshal(params.Box)
	if err != nil {
		return nil, err
	}

	rows, _ := q.db.Query(
		ctx,
		`INSERT INTO evaluation (
			evaluation_id, rule_set_id, entry_rule, box,
			accepted_combinations, accepted_rating_sum, parallel, duration_us
		)
		VALUES (
			@evaluation_id, @rule_set_id, @entry_rule, @box,
			@accepted_combinations, @accepted_rating_sum, @parallel, @duration_us
		)
		RETURNING *;`,
		pgx.NamedArgs{
			"evaluation_id":         pgtype.UUID{Bytes: uuid.New(), Valid: true},
			"rule_set_id":           params.RuleSetID,
			"entry_rule":            params.EntryRule,
			"box":                   box,
			"accepted_combinations": params.Answer.AcceptedCombinations,
			"accepted_rating_sum":   params.Answer.AcceptedRatingSum,
			"parallel":              params.Parallel,
			"duration_us":           params.Duration.Microseconds(),
		},
	)
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[evaluationRow])
	if err != nil {
		return nil, err
	}
	return row.evaluation()
}

type EvaluationFilter struct {
	RuleSetID int64
	EntryRule *string
	Limit     int
}

func (f EvaluationFilter) WhereClause() (string, pgx.NamedArgs) {
	clauses := []string{"rule_set_id = @rule_set_id"}
	args := pgx.NamedArgs{"rule_set_id": f.RuleSetID}
	if f.EntryRule != nil {
		clauses = append(clauses, "entry_rule = @entry_rule")
		args["entry_rule"] = *f.EntryRule
	}
	return strings.Join(clauses, " AND "), args
}

func (q *Queries) ListEvaluations(
	ctx context.Context, filter EvaluationFilter,
) ([]Evaluation, error) {
	whereClause, args := filter.WhereClause()
	query := "SELECT * FROM evaluation WHERE " + whereClause +
		" ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT @limit"
		args["limit"] = filter.Limit
	}

	rows, _ := q.db.Query(ctx, query+";", args)
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[evaluationRow])
	if err != nil {
		return nil, err
	}

	evaluations := make([]Evaluation, 0, len(collected))
	for _, row := range collected {
		e, err := row.evaluation()
		if err != nil {
			return nil, err
		}
		evaluations = append(evaluations, *e)
	}
	return evaluations, nil
}
