package planner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/youngeru/internal/metrics"
	"github.com/hitoshi/youngeru/internal/model"
	"github.com/hitoshi/youngeru/internal/repository"
)

// トースト通知の文言。
const (
	msgSaved      = "Plan generated and saved successfully!"
	msgSaveFailed = "Plan generated, but failed to save"
)

// historyLimit は保存済みセッション一覧で返す最大件数。
const historyLimit = 50

// Notifier はトースト通知の送信インターフェース。
type Notifier interface {
	Success(ctx context.Context, userID, message string)
	Error(ctx context.Context, userID, message string)
}

// Result はプラン生成の結果を表す。
// Saved が false の場合でも Recommendations は有効。
type Result struct {
	Inputs          model.PlannerInputs
	Recommendations []model.Recommendation
	Session         *model.PlannerSession
	Saved           bool
}

// Service はプランナーのサービス層。
type Service struct {
	repo     repository.PlannerSessionRepository
	notifier Notifier
	metrics  metrics.MetricsCollector
	logger   *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.PlannerSessionRepository, notifier Notifier, m metrics.MetricsCollector, logger *slog.Logger) *Service {
	if m == nil {
		m = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, metrics: m, logger: logger}
}

// Preview は保存せずにルールを評価する。デモ用。
func (s *Service) Preview(_ context.Context, in model.PlannerInputs) (*Result, error) {
	normalized, err := Normalize(in)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordPlanGenerated(false)
	return &Result{Inputs: normalized, Recommendations: Recommend(normalized)}, nil
}

// Generate はルールを評価し、入力と結果を1行として保存する。
// 保存に失敗しても結果は破棄せず、Saved=false とエラー通知で知らせる。
func (s *Service) Generate(ctx context.Context, userID string, in model.PlannerInputs) (*Result, error) {
	normalized, err := Normalize(in)
	if err != nil {
		return nil, err
	}

	result := &Result{Inputs: normalized, Recommendations: Recommend(normalized)}

	session := &model.PlannerSession{
		UserID: userID,
		Inputs: normalized,
		Output: result.Recommendations,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		s.logger.Error("プランナー結果の保存に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		s.notifier.Error(ctx, userID, msgSaveFailed)
		s.metrics.RecordPlanGenerated(false)
		return result, nil
	}

	result.Session = session
	result.Saved = true
	s.notifier.Success(ctx, userID, msgSaved)
	s.metrics.RecordPlanGenerated(true)
	return result, nil
}

// ListSessions はユーザーの保存済みセッションを新しい順に返す。
func (s *Service) ListSessions(ctx context.Context, userID string) ([]*model.PlannerSession, error) {
	sessions, err := s.repo.ListByUserID(ctx, userID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("プランナー履歴の取得に失敗しました: %w", err)
	}
	return sessions, nil
}
