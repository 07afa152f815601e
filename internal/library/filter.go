// Package library は読み取り専用のサプリメント解説ライブラリを提供する。
package library

import (
	"slices"
	"strings"

	"github.com/hitoshi/youngeru/internal/model"
)

// evidenceFilterPrefix はエビデンスレベルで絞り込むフィルタ値の接頭辞（例: "Evidence A"）。
const evidenceFilterPrefix = "Evidence "

// FilterOptions は画面に表示する絞り込み候補。
var FilterOptions = []string{"Energy", "Focus", "Recovery", "Vegan", "Sleep", "Evidence A", "Evidence B", "Evidence C"}

// Query はライブラリ一覧の検索条件。
type Query struct {
	// Search はタイトル・概要・タグの部分一致（大文字小文字無視）。
	Search string
	// Filters はOR結合。"Evidence X" はエビデンスレベル、それ以外はタグまたはカテゴリの完全一致。
	Filters []string
}

// Filter は items の順序を保ったまま条件に合う項目を返す。
func Filter(items []*model.LibraryItem, q Query) []*model.LibraryItem {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]*model.LibraryItem, 0, len(items))
	for _, item := range items {
		if search != "" && !matchesSearch(item, search) {
			continue
		}
		if len(q.Filters) > 0 && !matchesAnyFilter(item, q.Filters) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matchesSearch(item *model.LibraryItem, lowered string) bool {
	if strings.Contains(strings.ToLower(item.Title), lowered) ||
		strings.Contains(strings.ToLower(item.Summary), lowered) {
		return true
	}
	return slices.ContainsFunc(item.Tags, func(tag string) bool {
		return strings.Contains(strings.ToLower(tag), lowered)
	})
}

func matchesAnyFilter(item *model.LibraryItem, filters []string) bool {
	for _, f := range filters {
		if level, ok := strings.CutPrefix(f, evidenceFilterPrefix); ok {
			if string(item.EvidenceLevel) == level {
				return true
			}
			continue
		}
		if slices.Contains(item.Tags, f) || item.Category == f {
			return true
		}
	}
	return false
}
