package forecast

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/youngeru/internal/metrics"
	"github.com/hitoshi/youngeru/internal/model"
	"github.com/hitoshi/youngeru/internal/repository"
)

const (
	msgSaved      = "Forecast saved successfully!"
	msgSaveFailed = "Failed to save forecast"
	historyLimit  = 50
)

// Notifier はトースト通知の送信インターフェース。
type Notifier interface {
	Success(ctx context.Context, userID, message string)
	Error(ctx context.Context, userID, message string)
}

// Result はフォーキャスト計算の結果を表す。
type Result struct {
	Inputs     model.ForecastInputs
	Projection []model.ProjectionPoint
	Forecast   *model.Forecast
	Saved      bool
}

// Service はフォーキャストのサービス層。
type Service struct {
	repo     repository.ForecastRepository
	notifier Notifier
	metrics  metrics.MetricsCollector
	logger   *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.ForecastRepository, notifier Notifier, m metrics.MetricsCollector, logger *slog.Logger) *Service {
	if m == nil {
		m = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, metrics: m, logger: logger}
}

// Preview は保存せずに予測を計算する。
func (s *Service) Preview(_ context.Context, in model.ForecastInputs) (*Result, error) {
	normalized, err := Normalize(in)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordForecast(false)
	return &Result{Inputs: normalized, Projection: Project(normalized)}, nil
}

// Save はサーバー側で予測を再計算し、入力と予測系列を保存する。
// 保存失敗時は結果を返したまま Saved=false とし、エラー通知を積む。
func (s *Service) Save(ctx context.Context, userID string, in model.ForecastInputs) (*Result, error) {
	normalized, err := Normalize(in)
	if err != nil {
		return nil, err
	}

	result := &Result{Inputs: normalized, Projection: Project(normalized)}
	f := &model.Forecast{UserID: userID, Inputs: normalized, Projection: result.Projection}
	if err := s.repo.Create(ctx, f); err != nil {
		s.logger.Error("フォーキャストの保存に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		s.notifier.Error(ctx, userID, msgSaveFailed)
		s.metrics.RecordForecast(false)
		return result, nil
	}

	result.Forecast = f
	result.Saved = true
	s.notifier.Success(ctx, userID, msgSaved)
	s.metrics.RecordForecast(true)
	return result, nil
}

// List はユーザーの保存済みフォーキャストを新しい順に返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Forecast, error) {
	forecasts, err := s.repo.ListByUserID(ctx, userID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("フォーキャスト履歴の取得に失敗しました: %w", err)
	}
	return forecasts, nil
}
