// Package user はプロフィール管理と退会処理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/hitoshi/youngeru/internal/model"
	"github.com/hitoshi/youngeru/internal/repository"
)

const maxFirstNameLength = 100

// ProfileInput はプロフィール更新の入力を表す。空文字列は未設定を表す。
type ProfileInput struct {
	FirstName   string
	AgeBand     string
	DietPattern string
}

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	profileRepo repository.ProfileRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	profileRepo repository.ProfileRepository,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		profileRepo: profileRepo,
	}
}

// GetProfile はプロフィールを返す。未作成の場合は空のプロフィールを返す。
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := s.profileRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	if p == nil {
		return &model.Profile{UserID: userID}, nil
	}
	return p, nil
}

// UpdateProfile はプロフィールを検証して保存する。
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*model.Profile, error) {
	p := &model.Profile{
		UserID:      userID,
		FirstName:   strings.TrimSpace(in.FirstName),
		AgeBand:     strings.TrimSpace(in.AgeBand),
		DietPattern: strings.TrimSpace(in.DietPattern),
	}
	if len([]rune(p.FirstName)) > maxFirstNameLength {
		return nil, model.NewInvalidProfileError(fmt.Sprintf("first_name must be at most %d characters", maxFirstNameLength))
	}
	if p.AgeBand != "" && !slices.Contains(model.AgeBands, p.AgeBand) {
		return nil, model.NewInvalidProfileError(fmt.Sprintf("unknown age_band %q", p.AgeBand))
	}
	if p.DietPattern != "" && !slices.Contains(model.DietPatterns, p.DietPattern) {
		return nil, model.NewInvalidProfileError(fmt.Sprintf("unknown diet_pattern %q", p.DietPattern))
	}

	if err := s.profileRepo.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("プロフィールの保存に失敗しました: %w", err)
	}
	return p, nil
}

// Withdraw はユーザーの退会処理を実行する。
// セッションを削除したのちユーザーを削除する。所有する行はCASCADE削除される。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	// ユーザー存在確認
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("セッションの削除に失敗しました: %w", err)
	}

	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)

	return nil
}
