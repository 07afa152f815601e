// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はコミュニティ投稿のタイトル・本文からHTMLを取り除き、
// プレーンテキストとして保存できる形に整える。
// bluemondayのStrictPolicyで全タグを除去する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService は投稿テキストのサニタイズ機能のインターフェースを定義する。
type ContentSanitizerService interface {
	// Sanitize は全てのHTMLタグを除去し、前後の空白を取り除いたプレーンテキストを返す。
	// script, style 要素は中身ごと除去される。
	// 文字参照はデコードして返すため、出力は常にテキストとして扱うこと。
	// 文字参照で表現されたタグもデコード後に除去する。
	// 出力を再度渡しても変化しない（冪等）。
	Sanitize(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーはスレッドセーフ。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// maxSanitizePasses は多重エンコードされた入力をデコードする最大回数。
const maxSanitizePasses = 8

// Sanitize は投稿テキストをサニタイズする。
// タグ除去と文字参照のデコードを、結果が変わらなくなるまで繰り返す。
func (s *contentSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	cur := raw
	for range maxSanitizePasses {
		next := s.pass(cur)
		if next == cur {
			return cur
		}
		cur = next
	}
	// 収束しない入力は、タグとして解釈されないエスケープ済みの形で返す
	return strings.TrimSpace(html.EscapeString(s.pass(cur)))
}

func (s *contentSanitizer) pass(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
}

// compile-time interface check
var _ ContentSanitizerService = (*contentSanitizer)(nil)
