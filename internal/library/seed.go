package library

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/youngeru/internal/model"
	"github.com/hitoshi/youngeru/internal/repository"
	"gopkg.in/yaml.v3"
)

//go:embed seed/library.yaml
var seedYAML []byte

type seedFile struct {
	Items []seedItem `yaml:"items"`
}

type seedItem struct {
	Slug          string   `yaml:"slug"`
	Title         string   `yaml:"title"`
	Category      string   `yaml:"category"`
	EvidenceLevel string   `yaml:"evidence_level"`
	Summary       string   `yaml:"summary"`
	HowToTake     string   `yaml:"how_to_take"`
	Guardrails    string   `yaml:"guardrails"`
	Tags          []string `yaml:"tags"`
}

// ParseSeed はYAMLのシードを検証してライブラリ項目に変換する。
// 未知のキー、スラッグの重複、A/B/C以外のエビデンスレベルはエラーとする。
func ParseSeed(data []byte) ([]*model.LibraryItem, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f seedFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("シードのデコードに失敗しました: %w", err)
	}

	seen := make(map[string]bool, len(f.Items))
	items := make([]*model.LibraryItem, 0, len(f.Items))
	for i, it := range f.Items {
		slug := strings.TrimSpace(it.Slug)
		if slug == "" || strings.TrimSpace(it.Title) == "" {
			return nil, fmt.Errorf("item %d: slug and title are required", i)
		}
		if seen[slug] {
			return nil, fmt.Errorf("item %d: duplicate slug %q", i, slug)
		}
		seen[slug] = true

		level := model.EvidenceLevel(it.EvidenceLevel)
		switch level {
		case model.EvidenceA, model.EvidenceB, model.EvidenceC:
		default:
			return nil, fmt.Errorf("item %q: invalid evidence level %q", slug, it.EvidenceLevel)
		}

		items = append(items, &model.LibraryItem{
			Slug:          slug,
			Title:         it.Title,
			Category:      it.Category,
			EvidenceLevel: level,
			Summary:       strings.TrimSpace(it.Summary),
			HowToTake:     strings.TrimSpace(it.HowToTake),
			Guardrails:    strings.TrimSpace(it.Guardrails),
			Tags:          it.Tags,
		})
	}
	return items, nil
}

// Seed は組み込みのシードをスラッグ単位でupsertし、件数を返す。
// 再実行しても重複は作られない。
func Seed(ctx context.Context, repo repository.LibraryRepository, logger *slog.Logger) (int, error) {
	items, err := ParseSeed(seedYAML)
	if err != nil {
		return 0, err
	}
	for _, item := range items {
		if err := repo.Upsert(ctx, item); err != nil {
			return 0, err
		}
		logger.Debug("library item upserted", slog.String("slug", item.Slug))
	}
	logger.Info("ライブラリのシードが完了しました", slog.Int("count", len(items)))
	return len(items), nil
}
