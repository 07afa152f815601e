package model

import "time"

// LibraryItem は読み取り専用のコンテンツ項目を表す。
// エビデンスレベルは編集者が手動で付与する。
type LibraryItem struct {
	ID            int64
	Slug          string
	Title         string
	Category      string
	EvidenceLevel EvidenceLevel
	Summary       string
	HowToTake     string
	Guardrails    string
	Tags          []string
	UpdatedAt     time.Time
}
