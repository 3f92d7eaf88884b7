package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ozsure/quoting/internal/engine"
	"github.com/ozsure/quoting/internal/rating"
	"github.com/ozsure/quoting/internal/rules"
)

// PostgresStore persists rules and rating tables in PostgreSQL via a
// pgx connection pool. Conditions and actions are stored as jsonb and
// parsed back through the rules package so invalid rows are rejected at
// load time rather than at evaluation time.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS uw_rules (
    id               TEXT PRIMARY KEY,
    seq              BIGSERIAL,
    name             TEXT NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    category         TEXT NOT NULL,
    priority         INT NOT NULL DEFAULT 100,
    condition        JSONB NOT NULL,
    action           JSONB NOT NULL,
    entities         TEXT[] NOT NULL DEFAULT '{}',
    lines            TEXT[] NOT NULL DEFAULT '{}',
    states           TEXT[] NOT NULL DEFAULT '{}',
    is_active        BOOLEAN NOT NULL DEFAULT TRUE,
    version          INT NOT NULL DEFAULT 1,
    effective_from   TIMESTAMPTZ NOT NULL DEFAULT now(),
    effective_to     TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_uw_rules_category ON uw_rules (category, priority);

CREATE TABLE IF NOT EXISTS rating_tables (
    id               TEXT PRIMARY KEY,
    name             TEXT NOT NULL,
    line_of_business TEXT NOT NULL,
    version          INT NOT NULL,
    base_rate        NUMERIC(12,6) NOT NULL,
    factors          JSONB NOT NULL DEFAULT '{}',
    is_active        BOOLEAN NOT NULL DEFAULT TRUE,
    effective_from   TIMESTAMPTZ NOT NULL DEFAULT now(),
    effective_to     TIMESTAMPTZ,
    UNIQUE (line_of_business, version)
);

CREATE TABLE IF NOT EXISTS audit_logs (
    id          TEXT PRIMARY KEY,
    occurred_at TIMESTAMPTZ NOT NULL,
    entity_type TEXT NOT NULL,
    entity_id   TEXT NOT NULL,
    action      TEXT NOT NULL,
    actor_id    TEXT,
    categories  TEXT[] NOT NULL DEFAULT '{}',
    summary     JSONB NOT NULL DEFAULT '{}',
    context     JSONB NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs (entity_type, entity_id, occurred_at DESC);
`

// Migrate creates the schema if it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

const selectRuleColumns = `
SELECT id, seq, name, description, category, priority, condition, action,
       entities, lines, states, is_active, version, effective_from, effective_to
FROM uw_rules`

func (s *PostgresStore) EffectiveRules(ctx context.Context, q engine.RuleQuery) ([]rules.Rule, error) {
	asOf := q.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	cats := make([]string, 0, len(q.Categories))
	for _, c := range q.Categories {
		cats = append(cats, string(c))
	}

	query := selectRuleColumns + `
WHERE is_active
  AND effective_from <= $1
  AND (effective_to IS NULL OR effective_to >= $1)
  AND (cardinality($2::text[]) = 0 OR category = ANY($2::text[]))
ORDER BY priority, seq`

	rows, err := s.pool.Query(ctx, query, asOf, cats)
	if err != nil {
		return nil, fmt.Errorf("store: query effective rules: %w", err)
	}
	defer rows.Close()

	out := make([]rules.Rule, 0, 32)
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		// Applicability sets are small, filter them here rather than
		// pushing array-overlap expressions into the query plan.
		if q.EntityType != "" && !r.AppliesToEntity(q.EntityType) {
			continue
		}
		if q.LineOfBusiness != "" && !r.AppliesToLine(q.LineOfBusiness) {
			continue
		}
		if q.State != "" && !r.AppliesToState(q.State) {
			continue
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListRules(ctx context.Context) ([]rules.Rule, error) {
	rows, err := s.pool.Query(ctx, selectRuleColumns+" ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("store: list rules: %w", err)
	}
	defer rows.Close()

	var out []rules.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetRule(ctx context.Context, id string) (*rules.Rule, error) {
	row := s.pool.QueryRow(ctx, selectRuleColumns+" WHERE id = $1", id)
	r, err := scanRule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRuleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) UpsertRule(ctx context.Context, r rules.Rule) error {
	if err := rules.ValidateRule(r); err != nil {
		return err
	}
	condJSON, err := rules.EncodeCondition(r.Condition)
	if err != nil {
		return fmt.Errorf("store: encode condition: %w", err)
	}
	actJSON, err := rules.EncodeAction(r.Action)
	if err != nil {
		return fmt.Errorf("store: encode action: %w", err)
	}
	if r.EffectiveFrom.IsZero() {
		r.EffectiveFrom = time.Now()
	}

	_, err = s.pool.Exec(ctx, `
INSERT INTO uw_rules (id, name, description, category, priority, condition, action,
                      entities, lines, states, is_active, version, effective_from, effective_to)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    category = EXCLUDED.category,
    priority = EXCLUDED.priority,
    condition = EXCLUDED.condition,
    action = EXCLUDED.action,
    entities = EXCLUDED.entities,
    lines = EXCLUDED.lines,
    states = EXCLUDED.states,
    is_active = EXCLUDED.is_active,
    version = EXCLUDED.version,
    effective_from = EXCLUDED.effective_from,
    effective_to = EXCLUDED.effective_to`,
		r.ID, r.Name, r.Description, string(r.Category), r.Priority,
		condJSON, actJSON,
		r.ApplicableEntities, r.ApplicableLines, r.ApplicableStates,
		r.IsActive, r.Version, r.EffectiveFrom, r.EffectiveTo)
	if err != nil {
		return fmt.Errorf("store: upsert rule %s: %w", r.ID, err)
	}
	return nil
}

func (s *PostgresStore) DeleteRule(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM uw_rules WHERE id = $1", id); err != nil {
		return fmt.Errorf("store: delete rule %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) ActiveTable(ctx context.Context, line rating.LineOfBusiness) (*rating.Table, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, name, line_of_business, version, base_rate, factors, is_active, effective_from, effective_to
FROM rating_tables
WHERE line_of_business = $1
  AND is_active
  AND effective_from <= now()
  AND (effective_to IS NULL OR effective_to >= now())
ORDER BY version DESC
LIMIT 1`, string(line))

	var t rating.Table
	var lob string
	err := row.Scan(&t.ID, &t.Name, &lob, &t.Version, &t.BaseRate, &t.Factors,
		&t.IsActive, &t.EffectiveFrom, &t.EffectiveTo)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, rating.ErrTableNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan rating table: %w", err)
	}
	t.LineOfBusiness = rating.LineOfBusiness(lob)
	return &t, nil
}

func (s *PostgresStore) UpsertTable(ctx context.Context, t rating.Table) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO rating_tables (id, name, line_of_business, version, base_rate, factors,
                           is_active, effective_from, effective_to)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (line_of_business, version) DO UPDATE SET
    id = EXCLUDED.id,
    name = EXCLUDED.name,
    base_rate = EXCLUDED.base_rate,
    factors = EXCLUDED.factors,
    is_active = EXCLUDED.is_active,
    effective_from = EXCLUDED.effective_from,
    effective_to = EXCLUDED.effective_to`,
		t.ID, t.Name, string(t.LineOfBusiness), t.Version, t.BaseRate, t.Factors,
		t.IsActive, t.EffectiveFrom, t.EffectiveTo)
	if err != nil {
		return fmt.Errorf("store: upsert rating table %s v%d: %w", t.LineOfBusiness, t.Version, err)
	}
	return nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanRule(row pgx.Row) (rules.Rule, error) {
	var (
		r        rules.Rule
		category string
		condJSON []byte
		actJSON  []byte
	)
	err := row.Scan(&r.ID, &r.Seq, &r.Name, &r.Description, &category, &r.Priority,
		&condJSON, &actJSON, &r.ApplicableEntities, &r.ApplicableLines, &r.ApplicableStates,
		&r.IsActive, &r.Version, &r.EffectiveFrom, &r.EffectiveTo)
	if err != nil {
		return rules.Rule{}, err
	}
	r.Category = rules.Category(category)

	cond, err := rules.ParseCondition(condJSON)
	if err != nil {
		return rules.Rule{}, fmt.Errorf("store: rule %s has invalid condition: %w", r.ID, err)
	}
	r.Condition = cond

	act, err := rules.ParseAction(actJSON)
	if err != nil {
		return rules.Rule{}, fmt.Errorf("store: rule %s has invalid action: %w", r.ID, err)
	}
	r.Action = act
	return r, nil
}
