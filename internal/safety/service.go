package safety

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/youngeru/internal/metrics"
	"github.com/hitoshi/youngeru/internal/model"
	"github.com/hitoshi/youngeru/internal/repository"
)

const (
	msgSaved      = "Safety check saved"
	msgSaveFailed = "Failed to save safety check"
	historyLimit  = 50
)

// Notifier はトースト通知の送信インターフェース。
type Notifier interface {
	Success(ctx context.Context, userID, message string)
	Error(ctx context.Context, userID, message string)
}

// Result はセーフティチェックの結果を表す。
type Result struct {
	Inputs  model.SafetyInputs
	Results []model.SafetyResult
	Check   *model.SafetyCheck
	Saved   bool
}

// Service はセーフティチェックのサービス層。
type Service struct {
	repo     repository.SafetyCheckRepository
	notifier Notifier
	metrics  metrics.MetricsCollector
	logger   *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.SafetyCheckRepository, notifier Notifier, m metrics.MetricsCollector, logger *slog.Logger) *Service {
	if m == nil {
		m = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, metrics: m, logger: logger}
}

// Evaluate は保存せずにチェックを実行する。
func (s *Service) Evaluate(_ context.Context, in model.SafetyInputs) (*Result, error) {
	normalized, err := Normalize(in)
	if err != nil {
		return nil, err
	}
	results := Check(normalized)
	s.record(results)
	return &Result{Inputs: normalized, Results: results}, nil
}

// Save はチェックを実行し、サプリメント・薬・既往症と結果を保存する。
// 妊娠・授乳フラグは判定にのみ使い、保存しない。
func (s *Service) Save(ctx context.Context, userID string, in model.SafetyInputs) (*Result, error) {
	res, err := s.Evaluate(ctx, in)
	if err != nil {
		return nil, err
	}

	check := &model.SafetyCheck{
		UserID:      userID,
		Supplements: res.Inputs.Supplements,
		Meds:        res.Inputs.Medications,
		Conditions:  res.Inputs.Conditions,
		Result:      res.Results,
	}
	if err := s.repo.Create(ctx, check); err != nil {
		s.logger.Error("セーフティチェックの保存に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		s.notifier.Error(ctx, userID, msgSaveFailed)
		return res, nil
	}

	res.Check = check
	res.Saved = true
	s.notifier.Success(ctx, userID, msgSaved)
	return res, nil
}

// List はユーザーの保存済みチェックを新しい順に返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.SafetyCheck, error) {
	checks, err := s.repo.ListByUserID(ctx, userID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("セーフティチェック履歴の取得に失敗しました: %w", err)
	}
	return checks, nil
}

// Report は保存済みチェックのPNGレポートを生成する。所有者以外には見つからない扱いとする。
func (s *Service) Report(ctx context.Context, userID string, id int64) ([]byte, error) {
	check, err := s.repo.FindByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("セーフティチェックの取得に失敗しました: %w", err)
	}
	if check == nil {
		return nil, model.NewSafetyCheckNotFoundError(id)
	}
	return RenderReport(check)
}

func (s *Service) record(results []model.SafetyResult) {
	for _, r := range results {
		s.metrics.RecordSafetyResult(string(r.Level))
	}
}
