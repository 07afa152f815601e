package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/youngeru/internal/model"
	"github.com/lib/pq"
)

// PostgresLibraryRepo はPostgreSQLを使用したライブラリ項目リポジトリ。
type PostgresLibraryRepo struct {
	db *sql.DB
}

// NewPostgresLibraryRepo はPostgresLibraryRepoを生成する。
func NewPostgresLibraryRepo(db *sql.DB) *PostgresLibraryRepo {
	return &PostgresLibraryRepo{db: db}
}

const libraryColumns = `id, slug, title, category, evidence_level, summary, how_to_take, guardrails, tags, updated_at`

// List は全項目を updated_at の新しい順に返す。
func (r *PostgresLibraryRepo) List(ctx context.Context) ([]*model.LibraryItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+libraryColumns+` FROM library_items ORDER BY updated_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list library items: %w", err)
	}
	defer rows.Close()

	var items []*model.LibraryItem
	for rows.Next() {
		item, err := scanLibraryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate library items: %w", err)
	}
	return items, nil
}

// FindBySlug はスラッグで項目を取得する。見つからない場合はnilを返す。
func (r *PostgresLibraryRepo) FindBySlug(ctx context.Context, slug string) (*model.LibraryItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+libraryColumns+` FROM library_items WHERE slug = $1`,
		slug,
	)
	item, err := scanLibraryItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

// Upsert はスラッグをキーに項目を作成または更新する。
// 内容が変わらない場合も updated_at は更新される。
func (r *PostgresLibraryRepo) Upsert(ctx context.Context, item *model.LibraryItem) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO library_items (slug, title, category, evidence_level, summary, how_to_take, guardrails, tags, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		 ON CONFLICT (slug) DO UPDATE SET
			title = EXCLUDED.title,
			category = EXCLUDED.category,
			evidence_level = EXCLUDED.evidence_level,
			summary = EXCLUDED.summary,
			how_to_take = EXCLUDED.how_to_take,
			guardrails = EXCLUDED.guardrails,
			tags = EXCLUDED.tags,
			updated_at = now()
		 RETURNING id, updated_at`,
		item.Slug, item.Title, item.Category, string(item.EvidenceLevel),
		item.Summary, item.HowToTake, item.Guardrails, pq.Array(nonNil(item.Tags)),
	).Scan(&item.ID, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert library item %q: %w", item.Slug, err)
	}
	return nil
}

func scanLibraryItem(s rowScanner) (*model.LibraryItem, error) {
	item := &model.LibraryItem{}
	var evidence string
	err := s.Scan(&item.ID, &item.Slug, &item.Title, &item.Category, &evidence,
		&item.Summary, &item.HowToTake, &item.Guardrails, pq.Array(&item.Tags), &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan library item: %w", err)
	}
	item.EvidenceLevel = model.EvidenceLevel(evidence)
	return item, nil
}

// compile-time interface check
var _ LibraryRepository = (*PostgresLibraryRepo)(nil)
