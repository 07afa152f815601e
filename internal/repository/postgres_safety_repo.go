package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hitoshi/youngeru/internal/model"
	"github.com/lib/pq"
)

// PostgresSafetyCheckRepo はPostgreSQLを使用したセーフティチェックリポジトリ。
// サプリメント・薬・既往症はtext[]、判定結果はJSONBで保存する。
type PostgresSafetyCheckRepo struct {
	db *sql.DB
}

// NewPostgresSafetyCheckRepo はPostgresSafetyCheckRepoを生成する。
func NewPostgresSafetyCheckRepo(db *sql.DB) *PostgresSafetyCheckRepo {
	return &PostgresSafetyCheckRepo{db: db}
}

const safetyCheckColumns = `id, user_id, supplements, meds, conditions, result, created_at`

// Create はセーフティチェック結果を保存し、IDと作成日時を設定する。
func (r *PostgresSafetyCheckRepo) Create(ctx context.Context, c *model.SafetyCheck) error {
	result, err := json.Marshal(c.Result)
	if err != nil {
		return fmt.Errorf("判定結果のエンコードに失敗しました: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO safety_checks (user_id, supplements, meds, conditions, result)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		c.UserID, pq.Array(nonNil(c.Supplements)), pq.Array(nonNil(c.Meds)), pq.Array(nonNil(c.Conditions)), result,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("セーフティチェックの保存に失敗しました: %w", err)
	}
	return nil
}

// ListByUserID はユーザーの保存済みセーフティチェックを新しい順に返す。
func (r *PostgresSafetyCheckRepo) ListByUserID(ctx context.Context, userID string, limit int) ([]*model.SafetyCheck, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+safetyCheckColumns+`
		 FROM safety_checks
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("セーフティチェック一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var checks []*model.SafetyCheck
	for rows.Next() {
		c, err := scanSafetyCheck(rows)
		if err != nil {
			return nil, err
		}
		checks = append(checks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("セーフティチェックの読み出しに失敗しました: %w", err)
	}
	return checks, nil
}

// FindByID は所有者が一致する場合のみ返す。見つからない場合はnilを返す。
func (r *PostgresSafetyCheckRepo) FindByID(ctx context.Context, id int64, userID string) (*model.SafetyCheck, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+safetyCheckColumns+` FROM safety_checks WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	c, err := scanSafetyCheck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSafetyCheck(s rowScanner) (*model.SafetyCheck, error) {
	c := &model.SafetyCheck{}
	var result []byte
	err := s.Scan(&c.ID, &c.UserID,
		pq.Array(&c.Supplements), pq.Array(&c.Meds), pq.Array(&c.Conditions),
		&result, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("セーフティチェックのスキャンに失敗しました: %w", err)
	}
	if err := json.Unmarshal(result, &c.Result); err != nil {
		return nil, fmt.Errorf("判定結果のデコードに失敗しました: %w", err)
	}
	return c, nil
}

// nonNil はnilスライスを空スライスに置き換える。NOT NULLのtext[]列に書き込む際に使う。
func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

// compile-time interface check
var _ SafetyCheckRepository = (*PostgresSafetyCheckRepo)(nil)
