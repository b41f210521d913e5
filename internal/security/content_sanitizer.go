// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizer はユーザーが入力した自由記述テキストからHTMLを取り除く。
// 保存するのはプレーンテキストのみで、表示側でのエスケープを前提とする。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer はユーザー入力テキストのサニタイズ機能のインターフェースを定義する。
type ContentSanitizer interface {
	// Sanitize はタグを全て除去し、前後の空白を取り除いたプレーンテキストを返す。
	// script, styleなどの要素は中身ごと除去される。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string

	// SanitizeList は各要素をサニタイズし、空になった要素を除いたリストを返す。
	SanitizeList(raw []string) []string
}

type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerの新しいインスタンスを生成する。
// bluemondayのStrictPolicyで全タグを除去する。
func NewContentSanitizer() ContentSanitizer {
	return &contentSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize はタグを除去したプレーンテキストを返す。
// bluemondayは出力をHTMLエスケープするため、保存用に元の文字へ戻す。
func (s *contentSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}

func (s *contentSanitizer) SanitizeList(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if clean := s.Sanitize(v); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}
