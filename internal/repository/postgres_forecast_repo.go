package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/youngeru/internal/model"
)

// PostgresForecastRepo はPostgreSQLを使用したフォーキャストリポジトリ。
type PostgresForecastRepo struct {
	db *sql.DB
}

// NewPostgresForecastRepo はPostgresForecastRepoを生成する。
func NewPostgresForecastRepo(db *sql.DB) *PostgresForecastRepo {
	return &PostgresForecastRepo{db: db}
}

// Create は入力と予測系列を保存し、IDと作成日時を設定する。
func (r *PostgresForecastRepo) Create(ctx context.Context, f *model.Forecast) error {
	inputs, err := json.Marshal(f.Inputs)
	if err != nil {
		return fmt.Errorf("failed to encode forecast inputs: %w", err)
	}
	projection, err := json.Marshal(f.Projection)
	if err != nil {
		return fmt.Errorf("failed to encode projection: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO forecasts (user_id, inputs, projection)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		f.UserID, inputs, projection,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert forecast: %w", err)
	}
	return nil
}

// ListByUserID はユーザーの保存済みフォーキャストを新しい順に返す。
func (r *PostgresForecastRepo) ListByUserID(ctx context.Context, userID string, limit int) ([]*model.Forecast, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, inputs, projection, created_at
		 FROM forecasts
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list forecasts: %w", err)
	}
	defer rows.Close()

	var forecasts []*model.Forecast
	for rows.Next() {
		f := &model.Forecast{}
		var inputs, projection []byte
		if err := rows.Scan(&f.ID, &f.UserID, &inputs, &projection, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan forecast: %w", err)
		}
		if err := json.Unmarshal(inputs, &f.Inputs); err != nil {
			return nil, fmt.Errorf("failed to decode forecast inputs: %w", err)
		}
		if err := json.Unmarshal(projection, &f.Projection); err != nil {
			return nil, fmt.Errorf("failed to decode projection: %w", err)
		}
		forecasts = append(forecasts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate forecasts: %w", err)
	}
	return forecasts, nil
}

// compile-time interface check
var _ ForecastRepository = (*PostgresForecastRepo)(nil)
