package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/aplenty-server/internal/database"
	"github.com/vancomm/aplenty-server/internal/workflow"
	"github.com/vancomm/aplenty-server/migrations"
)

func TestEvaluationFilterWhereClause(t *testing.T) {
	clause, args := EvaluationFilter{RuleSetID: 7}.WhereClause()
	assert.Equal(t, "rule_set_id = @rule_set_id", clause)
	assert.Equal(t, pgx.NamedArgs{"rule_set_id": int64(7)}, args)

	entry := "in"
	clause, args = EvaluationFilter{RuleSetID: 7, EntryRule: &entry}.WhereClause()
	assert.Equal(t, "rule_set_id = @rule_set_id AND entry_rule = @entry_rule", clause)
	assert.Equal(t, "in", args["entry_rule"])
}

// setupPool connects to DATABASE_URL; the test is skipped without one.
func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip()
	}
	url, ok := os.LookupEnv("DATABASE_URL")
	if !ok {
		t.Skip("DATABASE_URL not set")
	}

	_, err := database.Migrate(url, migrations.FS)
	require.NoError(t, err)

	ctx := context.Background()
	pool, err := database.Connect(ctx)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, "TRUNCATE rule_set CASCADE;")
	require.NoError(t, err)
	return pool
}

func TestRuleSetLifecycle(t *testing.T) {
	pool := setupPool(t)
	q := New(pool)
	ctx := context.Background()

	author := "alice"
	created, err := q.CreateRuleSet(ctx, CreateRuleSetParams{
		Name:      "sample",
		Source:    "in{A}\n",
		Digest:    []byte{1, 2, 3},
		RuleCount: 1,
		Author:    &author,
	})
	require.NoError(t, err)
	assert.Equal(t, "sample", created.Name)

	_, err = q.CreateRuleSet(ctx, CreateRuleSetParams{
		Name: "sample", Source: "in{R}\n", Digest: []byte{4},
	})
	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.True(t, pgerrcode.IsIntegrityConstraintViolation(pgErr.Code))

	fetched, err := q.FetchRuleSet(ctx, "sample")
	require.NoError(t, err)
	assert.Equal(t, created.RuleSetID, fetched.RuleSetID)
	assert.Equal(t, "in{A}\n", fetched.Source)

	list, err := q.ListRuleSets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Source)

	box := workflow.FullBox(1, 4001)
	evaluation, err := q.CreateEvaluation(ctx, CreateEvaluationParams{
		RuleSetID: created.RuleSetID,
		EntryRule: "in",
		Box:       box,
		Answer:    workflow.Answer{AcceptedCombinations: 42, AcceptedRatingSum: 7},
		Duration:  1500 * time.Microsecond,
	})
	require.NoError(t, err)
	assert.Equal(t, box, evaluation.Box)
	assert.Equal(t, int64(42), evaluation.AcceptedCombinations)

	evaluations, err := q.ListEvaluations(ctx, EvaluationFilter{RuleSetID: created.RuleSetID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, evaluations, 1)
	assert.Equal(t, evaluation.EvaluationID, evaluations[0].EvaluationID)
	assert.Equal(t, 1500*time.Microsecond, evaluations[0].Duration)

	deleted, err := q.DeleteRuleSet(ctx, "sample")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = q.FetchRuleSet(ctx, "sample")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}
