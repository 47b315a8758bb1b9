// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"template-manager/internal/common/database"
	apperrors "template-manager/internal/common/errors"
	"template-manager/internal/models"

	"github.com/lib/pq"
)

// Schema creates the version-record table. The partial unique index on
// (template_id) WHERE latest enforces the exactly-one-latest invariant at
// the schema level; the swap transaction enforces it at the operation level.
const Schema = `
CREATE TABLE IF NOT EXISTS prompt_templates (
	template_id     TEXT NOT NULL,
	version         TEXT NOT NULL,
	latest          BOOLEAN NOT NULL DEFAULT FALSE,
	name            TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	category        TEXT NOT NULL DEFAULT '',
	complexity      TEXT NOT NULL DEFAULT '',
	creator         TEXT NOT NULL DEFAULT '',
	usage_count     INTEGER NOT NULL DEFAULT 0,
	average_rating  DOUBLE PRECISION NOT NULL DEFAULT 0,
	rating_count    INTEGER NOT NULL DEFAULT 0,
	cloned_from     TEXT NOT NULL DEFAULT '',
	segments        JSONB NOT NULL DEFAULT '[]',
	voice_config    JSONB,
	model_config    JSONB,
	business        JSONB NOT NULL DEFAULT '{}',
	tags            JSONB NOT NULL DEFAULT '[]',
	search_keywords JSONB NOT NULL DEFAULT '[]',
	version_history JSONB NOT NULL DEFAULT '[]',
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (template_id, version)
);
CREATE UNIQUE INDEX IF NOT EXISTS prompt_templates_latest_idx
	ON prompt_templates (template_id) WHERE latest;
CREATE INDEX IF NOT EXISTS prompt_templates_status_idx
	ON prompt_templates (status) WHERE latest;
CREATE INDEX IF NOT EXISTS prompt_templates_creator_idx
	ON prompt_templates (creator) WHERE latest;
`

const templateColumns = `template_id, version, latest, name, description, status,
	category, complexity, creator, usage_count, average_rating, rating_count,
	cloned_from, segments, voice_config, model_config, business, tags,
	search_keywords, version_history, created_at, updated_at`

// PostgresStore implements TemplateStore on PostgreSQL.
type PostgresStore struct {
	client *database.PostgresClient
}

// NewPostgres creates a PostgresStore.
func NewPostgres(client *database.PostgresClient) *PostgresStore {
	return &PostgresStore{client: client}
}

// EnsureSchema creates the table and indexes if they do not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.client.DB.ExecContext(ctx, Schema); err != nil {
		return apperrors.NewStoreError("ensure-schema", err)
	}
	return nil
}

func (p *PostgresStore) GetLatest(ctx context.Context, templateID string) (*models.Template, error) {
	row := p.client.DB.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM prompt_templates
		WHERE template_id = $1 AND latest`, templateColumns), templateID)

	tpl, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewTemplateNotFoundError(templateID)
	}
	if err != nil {
		return nil, apperrors.NewStoreError("get-latest", err)
	}
	return tpl, nil
}

func (p *PostgresStore) GetVersion(ctx context.Context, templateID, version string) (*models.Template, error) {
	row := p.client.DB.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM prompt_templates
		WHERE template_id = $1 AND version = $2`, templateColumns), templateID, version)

	tpl, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewVersionNotFoundError(templateID, version)
	}
	if err != nil {
		return nil, apperrors.NewStoreError("get-version", err)
	}
	return tpl, nil
}

func (p *PostgresStore) ListVersions(ctx context.Context, templateID string) ([]*models.Template, error) {
	rows, err := p.client.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM prompt_templates
		WHERE template_id = $1
		ORDER BY created_at ASC`, templateColumns), templateID)
	if err != nil {
		return nil, apperrors.NewStoreError("list-versions", err)
	}
	defer rows.Close()

	templates, err := collectTemplates(rows)
	if err != nil {
		return nil, apperrors.NewStoreError("list-versions", err)
	}
	if len(templates) == 0 {
		return nil, apperrors.NewTemplateNotFoundError(templateID)
	}
	return templates, nil
}

func (p *PostgresStore) ListLatest(ctx context.Context, q ListQuery) ([]*models.Template, error) {
	query := fmt.Sprintf(`SELECT %s FROM prompt_templates WHERE latest`, templateColumns)
	args := []interface{}{}
	arg := 1

	if len(q.Statuses) > 0 {
		statuses := make([]string, len(q.Statuses))
		for i, s := range q.Statuses {
			statuses[i] = string(s)
		}
		query += fmt.Sprintf(" AND status = ANY($%d)", arg)
		args = append(args, pq.Array(statuses))
		arg++
	}
	if q.Creator != "" {
		query += fmt.Sprintf(" AND creator = $%d", arg)
		args = append(args, q.Creator)
		arg++
	}
	if q.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", arg)
		args = append(args, q.Category)
		arg++
	}
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", arg)
		args = append(args, q.Limit)
	}

	rows, err := p.client.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreError("list-latest", err)
	}
	defer rows.Close()

	templates, err := collectTemplates(rows)
	if err != nil {
		return nil, apperrors.NewStoreError("list-latest", err)
	}
	return templates, nil
}

func (p *PostgresStore) Insert(ctx context.Context, t *models.Template) error {
	cols, err := marshalJSONColumns(t)
	if err != nil {
		return apperrors.NewStoreError("insert", err)
	}

	_, err = p.client.DB.ExecContext(ctx, insertStatement,
		t.TemplateID, t.Version, true, t.Name, t.Description, string(t.Status),
		t.Category, string(t.Complexity), t.Creator, t.UsageCount,
		t.AverageRating, t.RatingCount, t.ClonedFrom,
		cols.segments, cols.voiceConfig, cols.modelConfig, cols.business,
		cols.tags, cols.keywords, cols.history, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewVersionConflictError(t.TemplateID, t.Version)
		}
		return apperrors.NewStoreError("insert", err)
	}
	return nil
}

func (p *PostgresStore) SwapLatest(ctx context.Context, current, next *models.Template) error {
	cols, err := marshalJSONColumns(next)
	if err != nil {
		return apperrors.NewStoreError("swap-latest", err)
	}

	return p.client.WithinTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE prompt_templates SET latest = FALSE
			WHERE template_id = $1 AND version = $2 AND latest`,
			current.TemplateID, current.Version)
		if err != nil {
			return apperrors.NewStoreError("swap-latest", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return apperrors.NewStoreError("swap-latest", err)
		}
		if affected != 1 {
			// Another writer moved the latest flag first.
			return apperrors.NewVersionConflictError(current.TemplateID, current.Version)
		}

		_, err = tx.ExecContext(ctx, insertStatement,
			next.TemplateID, next.Version, true, next.Name, next.Description,
			string(next.Status), next.Category, string(next.Complexity),
			next.Creator, next.UsageCount, next.AverageRating, next.RatingCount,
			next.ClonedFrom, cols.segments, cols.voiceConfig, cols.modelConfig,
			cols.business, cols.tags, cols.keywords, cols.history,
			next.CreatedAt, next.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return apperrors.NewVersionConflictError(next.TemplateID, next.Version)
			}
			return apperrors.NewStoreError("swap-latest", err)
		}
		return nil
	})
}

func (p *PostgresStore) IncrementUsage(ctx context.Context, templateID string) error {
	res, err := p.client.DB.ExecContext(ctx, `
		UPDATE prompt_templates
		SET usage_count = usage_count + 1, updated_at = $2
		WHERE template_id = $1 AND latest`,
		templateID, time.Now().UTC())
	if err != nil {
		return apperrors.NewStoreError("increment-usage", err)
	}
	return requireOneRow(res, templateID)
}

func (p *PostgresStore) AddRating(ctx context.Context, templateID string, rating float64) error {
	res, err := p.client.DB.ExecContext(ctx, `
		UPDATE prompt_templates
		SET average_rating = (average_rating * rating_count + $2) / (rating_count + 1),
		    rating_count = rating_count + 1,
		    updated_at = $3
		WHERE template_id = $1 AND latest`,
		templateID, rating, time.Now().UTC())
	if err != nil {
		return apperrors.NewStoreError("add-rating", err)
	}
	return requireOneRow(res, templateID)
}

// ==========================
// Row mapping helpers
// ==========================

const insertStatement = `
	INSERT INTO prompt_templates (
		template_id, version, latest, name, description, status,
		category, complexity, creator, usage_count, average_rating,
		rating_count, cloned_from, segments, voice_config, model_config,
		business, tags, search_keywords, version_history, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		$15, $16, $17, $18, $19, $20, $21, $22)`

type jsonColumns struct {
	segments, voiceConfig, modelConfig, business, tags, keywords, history []byte
}

func marshalJSONColumns(t *models.Template) (*jsonColumns, error) {
	cols := &jsonColumns{
		voiceConfig: t.VoiceConfig,
		modelConfig: t.ModelConfig,
	}

	var err error
	if cols.segments, err = json.Marshal(t.Segments); err != nil {
		return nil, fmt.Errorf("marshal segments: %w", err)
	}
	if cols.business, err = json.Marshal(t.Business); err != nil {
		return nil, fmt.Errorf("marshal business: %w", err)
	}
	if cols.tags, err = json.Marshal(t.Tags); err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	if cols.keywords, err = json.Marshal(t.SearchKeywords); err != nil {
		return nil, fmt.Errorf("marshal search keywords: %w", err)
	}
	if cols.history, err = json.Marshal(t.VersionHistory); err != nil {
		return nil, fmt.Errorf("marshal version history: %w", err)
	}
	return cols, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTemplate(row rowScanner) (*models.Template, error) {
	var t models.Template
	var status, complexity string
	var segments, business, tags, keywords, history []byte
	var voiceConfig, modelConfig []byte

	err := row.Scan(
		&t.TemplateID, &t.Version, &t.Latest, &t.Name, &t.Description, &status,
		&t.Category, &complexity, &t.Creator, &t.UsageCount, &t.AverageRating,
		&t.RatingCount, &t.ClonedFrom, &segments, &voiceConfig, &modelConfig,
		&business, &tags, &keywords, &history, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	t.Status = models.TemplateStatus(status)
	t.Complexity = models.Complexity(complexity)
	t.VoiceConfig = voiceConfig
	t.ModelConfig = modelConfig

	if err := json.Unmarshal(segments, &t.Segments); err != nil {
		return nil, fmt.Errorf("unmarshal segments: %w", err)
	}
	if err := json.Unmarshal(business, &t.Business); err != nil {
		return nil, fmt.Errorf("unmarshal business: %w", err)
	}
	if err := json.Unmarshal(tags, &t.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if err := json.Unmarshal(keywords, &t.SearchKeywords); err != nil {
		return nil, fmt.Errorf("unmarshal search keywords: %w", err)
	}
	if err := json.Unmarshal(history, &t.VersionHistory); err != nil {
		return nil, fmt.Errorf("unmarshal version history: %w", err)
	}
	return &t, nil
}

func collectTemplates(rows *sql.Rows) ([]*models.Template, error) {
	var out []*models.Template
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	return out, rows.Err()
}

func requireOneRow(res sql.Result, templateID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewStoreError("rows-affected", err)
	}
	if affected == 0 {
		return apperrors.NewTemplateNotFoundError(templateID)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
