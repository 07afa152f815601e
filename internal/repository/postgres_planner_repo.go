package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/youngeru/internal/model"
)

// PostgresPlannerSessionRepo はPostgreSQLを使用したプランナー結果リポジトリ。
// 入力と出力はJSONBカラムに保存する。
type PostgresPlannerSessionRepo struct {
	db *sql.DB
}

// NewPostgresPlannerSessionRepo はPostgresPlannerSessionRepoを生成する。
func NewPostgresPlannerSessionRepo(db *sql.DB) *PostgresPlannerSessionRepo {
	return &PostgresPlannerSessionRepo{db: db}
}

// Create は入力と推奨リストを1行として保存し、IDと作成日時を設定する。
func (r *PostgresPlannerSessionRepo) Create(ctx context.Context, s *model.PlannerSession) error {
	inputs, err := json.Marshal(s.Inputs)
	if err != nil {
		return fmt.Errorf("プランナー入力のエンコードに失敗しました: %w", err)
	}
	output, err := json.Marshal(s.Output)
	if err != nil {
		return fmt.Errorf("推奨リストのエンコードに失敗しました: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO planner_sessions (user_id, inputs, output)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		s.UserID, inputs, output,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("プランナー結果の保存に失敗しました: %w", err)
	}
	return nil
}

// ListByUserID はユーザーの保存済みセッションを新しい順に返す。
func (r *PostgresPlannerSessionRepo) ListByUserID(ctx context.Context, userID string, limit int) ([]*model.PlannerSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, inputs, output, created_at
		 FROM planner_sessions
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("プランナー結果一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var sessions []*model.PlannerSession
	for rows.Next() {
		s := &model.PlannerSession{}
		var inputs, output []byte
		if err := rows.Scan(&s.ID, &s.UserID, &inputs, &output, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("プランナー結果のスキャンに失敗しました: %w", err)
		}
		if err := json.Unmarshal(inputs, &s.Inputs); err != nil {
			return nil, fmt.Errorf("プランナー入力のデコードに失敗しました: %w", err)
		}
		if err := json.Unmarshal(output, &s.Output); err != nil {
			return nil, fmt.Errorf("推奨リストのデコードに失敗しました: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("プランナー結果の読み出しに失敗しました: %w", err)
	}
	return sessions, nil
}

// compile-time interface check
var _ PlannerSessionRepository = (*PostgresPlannerSessionRepo)(nil)
