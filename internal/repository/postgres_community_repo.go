package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hitoshi/youngeru/internal/model"
	"github.com/lib/pq"
)

// questionListLimit は質問一覧で返す最大件数。
const questionListLimit = 100

// PostgresQuestionRepo はPostgreSQLを使用した質問リポジトリ。
type PostgresQuestionRepo struct {
	db *sql.DB
}

// NewPostgresQuestionRepo はPostgresQuestionRepoを生成する。
func NewPostgresQuestionRepo(db *sql.DB) *PostgresQuestionRepo {
	return &PostgresQuestionRepo{db: db}
}

// Create は質問を作成し、IDと作成日時を設定する。
// 挿入トリガーにより community_events チャネルへ通知される。
func (r *PostgresQuestionRepo) Create(ctx context.Context, q *model.Question) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO questions (user_id, title, body, tags)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		q.UserID, q.Title, q.Body, pq.Array(nonNil(q.Tags)),
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return fmt.Errorf("質問の作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDの質問を取得する。見つからない場合はnilを返す。
func (r *PostgresQuestionRepo) FindByID(ctx context.Context, id int64) (*model.Question, error) {
	q := &model.Question{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, body, tags, created_at FROM questions WHERE id = $1`,
		id,
	).Scan(&q.ID, &q.UserID, &q.Title, &q.Body, pq.Array(&q.Tags), &q.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("質問の取得に失敗しました: %w", err)
	}
	return q, nil
}

// List は質問を新しい順に集計値付きで返す。
// Queryはタイトルまたは本文の部分一致（大文字小文字無視）、Tagはタグの完全一致で絞り込む。
func (r *PostgresQuestionRepo) List(ctx context.Context, filter QuestionFilter, viewerID string) ([]model.QuestionWithStats, error) {
	args := []any{nullableUserID(viewerID)}
	var where []string

	if filter.Query != "" {
		args = append(args, likePattern(filter.Query))
		n := len(args)
		where = append(where, fmt.Sprintf(`(q.title ILIKE $%d ESCAPE '\' OR q.body ILIKE $%d ESCAPE '\')`, n, n))
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		where = append(where, fmt.Sprintf(`$%d = ANY(q.tags)`, len(args)))
	}

	var b strings.Builder
	b.WriteString(`SELECT q.id, q.user_id, q.title, q.body, q.tags, q.created_at,
		(SELECT count(*) FROM question_likes ql WHERE ql.question_id = q.id),
		(SELECT count(*) FROM answers a WHERE a.question_id = q.id),
		EXISTS (SELECT 1 FROM question_likes ql WHERE ql.question_id = q.id AND ql.user_id = $1),
		EXISTS (SELECT 1 FROM saved_questions sq WHERE sq.question_id = q.id AND sq.user_id = $1)
		FROM questions q`)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(fmt.Sprintf(" ORDER BY q.created_at DESC, q.id DESC LIMIT %d", questionListLimit))

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("質問一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var questions []model.QuestionWithStats
	for rows.Next() {
		var q model.QuestionWithStats
		if err := rows.Scan(
			&q.ID, &q.UserID, &q.Title, &q.Body, pq.Array(&q.Tags), &q.CreatedAt,
			&q.LikesCount, &q.AnswersCount, &q.IsLiked, &q.IsSaved,
		); err != nil {
			return nil, fmt.Errorf("質問のスキャンに失敗しました: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("質問一覧の読み出しに失敗しました: %w", err)
	}
	return questions, nil
}

// PostgresAnswerRepo はPostgreSQLを使用した回答リポジトリ。
type PostgresAnswerRepo struct {
	db *sql.DB
}

// NewPostgresAnswerRepo はPostgresAnswerRepoを生成する。
func NewPostgresAnswerRepo(db *sql.DB) *PostgresAnswerRepo {
	return &PostgresAnswerRepo{db: db}
}

// Create は回答を作成し、IDと作成日時を設定する。
func (r *PostgresAnswerRepo) Create(ctx context.Context, a *model.Answer) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO answers (question_id, user_id, body, is_expert)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		a.QuestionID, a.UserID, a.Body, a.IsExpert,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("回答の作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDの回答を取得する。見つからない場合はnilを返す。
func (r *PostgresAnswerRepo) FindByID(ctx context.Context, id int64) (*model.Answer, error) {
	a := &model.Answer{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, question_id, user_id, body, is_expert, created_at FROM answers WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.QuestionID, &a.UserID, &a.Body, &a.IsExpert, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("回答の取得に失敗しました: %w", err)
	}
	return a, nil
}

// ListByQuestionID は回答を古い順にいいね数付きで返す。
func (r *PostgresAnswerRepo) ListByQuestionID(ctx context.Context, questionID int64, viewerID string) ([]model.AnswerWithStats, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.question_id, a.user_id, a.body, a.is_expert, a.created_at,
			(SELECT count(*) FROM answer_likes al WHERE al.answer_id = a.id),
			EXISTS (SELECT 1 FROM answer_likes al WHERE al.answer_id = a.id AND al.user_id = $2)
		 FROM answers a
		 WHERE a.question_id = $1
		 ORDER BY a.created_at ASC, a.id ASC`,
		questionID, nullableUserID(viewerID),
	)
	if err != nil {
		return nil, fmt.Errorf("回答一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var answers []model.AnswerWithStats
	for rows.Next() {
		var a model.AnswerWithStats
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.UserID, &a.Body, &a.IsExpert, &a.CreatedAt,
			&a.LikesCount, &a.IsLiked); err != nil {
			return nil, fmt.Errorf("回答のスキャンに失敗しました: %w", err)
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("回答一覧の読み出しに失敗しました: %w", err)
	}
	return answers, nil
}

// PostgresReactionRepo はPostgreSQLを使用したいいね・保存リポジトリ。
type PostgresReactionRepo struct {
	db *sql.DB
}

// NewPostgresReactionRepo はPostgresReactionRepoを生成する。
func NewPostgresReactionRepo(db *sql.DB) *PostgresReactionRepo {
	return &PostgresReactionRepo{db: db}
}

// ToggleQuestionLike は質問へのいいねをトグルする。
func (r *PostgresReactionRepo) ToggleQuestionLike(ctx context.Context, questionID int64, userID string) (model.ToggleResult, error) {
	return r.toggle(ctx, "question_likes", "question_id", questionID, userID)
}

// ToggleQuestionSave は質問の保存をトグルする。
func (r *PostgresReactionRepo) ToggleQuestionSave(ctx context.Context, questionID int64, userID string) (model.ToggleResult, error) {
	return r.toggle(ctx, "saved_questions", "question_id", questionID, userID)
}

// ToggleAnswerLike は回答へのいいねをトグルする。
func (r *PostgresReactionRepo) ToggleAnswerLike(ctx context.Context, answerID int64, userID string) (model.ToggleResult, error) {
	return r.toggle(ctx, "answer_likes", "answer_id", answerID, userID)
}

// toggle は行があれば削除、なければ作成し、トグル後の状態と件数を返す。
// table と keyCol は呼び出し元の定数のみを受け付ける。
func (r *PostgresReactionRepo) toggle(ctx context.Context, table, keyCol string, id int64, userID string) (model.ToggleResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ToggleResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND user_id = $2`, table, keyCol),
		id, userID,
	)
	if err != nil {
		return model.ToggleResult{}, fmt.Errorf("%s の削除に失敗しました: %w", table, err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return model.ToggleResult{}, fmt.Errorf("failed to get rows affected: %w", err)
	}

	res := model.ToggleResult{Active: removed == 0}
	if res.Active {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (%s, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, table, keyCol),
			id, userID,
		); err != nil {
			return model.ToggleResult{}, fmt.Errorf("%s の作成に失敗しました: %w", table, err)
		}
	}

	if err := tx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s = $1`, table, keyCol),
		id,
	).Scan(&res.Count); err != nil {
		return model.ToggleResult{}, fmt.Errorf("%s の件数取得に失敗しました: %w", table, err)
	}

	if err := tx.Commit(); err != nil {
		return model.ToggleResult{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return res, nil
}

// likePattern は部分一致用のILIKEパターンを生成する。メタ文字はエスケープする。
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// compile-time interface checks
var (
	_ QuestionRepository = (*PostgresQuestionRepo)(nil)
	_ AnswerRepository   = (*PostgresAnswerRepo)(nil)
	_ ReactionRepository = (*PostgresReactionRepo)(nil)
)
