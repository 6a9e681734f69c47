package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

type RuleSet struct {
	RuleSetID int64     `db:"rule_set_id" json:"-"`
	Name      string    `db:"name" json:"name"`
	Source    string    `db:"source" json:"source,omitempty"`
	Digest    []byte    `db:"digest" json:"-"`
	RuleCount int       `db:"rule_count" json:"rule_count"`
	PartCount int       `db:"part_count" json:"part_count"`
	Author    *string   `db:"author" json:"author,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type CreateRuleSetParams struct {
	Name      string
	Source    string
	Digest    []byte
	RuleCount int
	PartCount int
	Author    *string
}

func (q *Queries) CreateRuleSet(
	ctx context.Context, params CreateRuleSetParams,
) (*RuleSet, error) {
	rows, _ := q.db.Query(
		ctx,
		`INSERT INTO rule_set (
			name, source, digest, rule_count, part_count, author
		)
		VALUES (
			@name, @source, @digest, @rule_count, @part_count, @author
		)
		RETURNING *;`,
		pgx.NamedArgs{
			"name":       params.Name,
			"source":     params.Source,
			"digest":     params.Digest,
			"rule_count": params.RuleCount,
			"part_count": params.PartCount,
			"author":     params.Author,
		},
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[RuleSet])
}

func (q *Queries) FetchRuleSet(ctx context.Context, name string) (*RuleSet, error) {
	rows, _ := q.db.Query(
		ctx, "SELECT * FROM rule_set WHERE name = $1", name,
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[RuleSet])
}

// ListRuleSets returns every rule set without its source, newest first.
func (q *Queries) ListRuleSets(ctx context.Context) ([]RuleSet, error) {
	rows, _ := q.db.Query(
		ctx,
		`SELECT 
			rule_set_id, name, '' AS source, digest,
			rule_count, part_count, author, created_at
		FROM rule_set
		ORDER BY created_at DESC, name;`,
	)
	return pgx.CollectRows(rows, pgx.RowToStructByName[RuleSet])
}

func (q *Queries) DeleteRuleSet(ctx context.Context, name string) (bool, error) {
	tag, err := q.db.Exec(ctx, "DELETE FROM rule_set WHERE name = $1", name)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
