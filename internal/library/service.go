package library

import (
	"context"
	"fmt"

	"github.com/hitoshi/youngeru/internal/model"
	"github.com/hitoshi/youngeru/internal/repository"
)

// Service はライブラリのサービス層。
type Service struct {
	repo repository.LibraryRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.LibraryRepository) *Service {
	return &Service{repo: repo}
}

// List は updated_at の新しい順に、条件に合う項目を返す。
func (s *Service) List(ctx context.Context, q Query) ([]*model.LibraryItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ライブラリ一覧の取得に失敗しました: %w", err)
	}
	return Filter(items, q), nil
}

// Get はスラッグで項目を取得する。
func (s *Service) Get(ctx context.Context, slug string) (*model.LibraryItem, error) {
	item, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("ライブラリ項目の取得に失敗しました: %w", err)
	}
	if item == nil {
		return nil, model.NewLibraryItemNotFoundError(slug)
	}
	return item, nil
}
