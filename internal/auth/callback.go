package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/lifelog/internal/metrics"
	"github.com/hitoshi/lifelog/internal/model"
)

// コールバック失敗時の表示メッセージ
const (
	MsgCouldNotAuthenticate = "Could not authenticate"
	MsgInvalidState         = "Invalid OAuth state"
	MsgEmailRegistered      = "An account with this email already exists. Sign in with your email and password."
)

// コールバック結果のメトリクスラベル
const (
	outcomeProviderError  = "provider_error"
	outcomeMissingCode    = "missing_code"
	outcomeStateMismatch  = "state_mismatch"
	outcomeExchangeFailed = "exchange_failed"
	outcomeSuccess        = "success"
	outcomePanic          = "panic"
)

// authErrorPath はエラー表示用のフロントエンドパス。
const authErrorPath = "/auth"

// SessionIssuer は認可コードからセッションを発行する。
type SessionIssuer interface {
	HandleCallback(ctx context.Context, code string) (*model.Session, error)
}

// Redeemer は招待コードの使用をベストエフォートで記録する。
type Redeemer interface {
	RedeemBestEffort(ctx context.Context, raw, userID string)
}

// CallbackParams はOAuthコールバックの入力。
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string

	// ExpectedState はログイン開始時にCookieへ保存したstate
	ExpectedState string

	Invite string
	Next   string
}

// CallbackResult はコールバック処理の結果。
// RedirectPathはフロントエンドURLからの相対パス。
type CallbackResult struct {
	RedirectPath string
	Session      *model.Session
}

// CallbackFlow はOAuthコールバックの状態遷移を処理する。
type CallbackFlow struct {
	issuer      SessionIssuer
	invites     Redeemer
	metrics     metrics.MetricsCollector
	defaultNext string
}

// NewCallbackFlow はCallbackFlowを生成する。
func NewCallbackFlow(issuer SessionIssuer, invites Redeemer, mc metrics.MetricsCollector, defaultNext string) *CallbackFlow {
	if mc == nil {
		mc = metrics.Nop{}
	}
	if !IsSafeNext(defaultNext) {
		defaultNext = "/dashboard"
	}
	return &CallbackFlow{
		issuer:      issuer,
		invites:     invites,
		metrics:     mc,
		defaultNext: defaultNext,
	}
}

// Run はコールバックを処理し、リダイレクト先を決定する。
// 処理中のpanicは認証失敗へのリダイレクトに変換する。
func (f *CallbackFlow) Run(ctx context.Context, p CallbackParams) (res CallbackResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in oauth callback", slog.String("panic", fmt.Sprint(r)))
			f.metrics.RecordAuthCallback(outcomePanic)
			res = CallbackResult{RedirectPath: ErrorRedirect(MsgCouldNotAuthenticate)}
		}
	}()

	// 1. プロバイダーからのエラー
	if p.Error != "" {
		msg := p.ErrorDescription
		if msg == "" {
			msg = p.Error
		}
		slog.Info("oauth provider returned error", slog.String("error", p.Error))
		f.metrics.RecordAuthCallback(outcomeProviderError)
		return CallbackResult{RedirectPath: ErrorRedirect(msg)}
	}

	// 2. 認可コードなし
	if p.Code == "" {
		f.metrics.RecordAuthCallback(outcomeMissingCode)
		return CallbackResult{RedirectPath: ErrorRedirect(MsgCouldNotAuthenticate)}
	}

	// 3. stateの照合
	if p.ExpectedState == "" || p.State != p.ExpectedState {
		slog.Warn("oauth state mismatch")
		f.metrics.RecordAuthCallback(outcomeStateMismatch)
		return CallbackResult{RedirectPath: ErrorRedirect(MsgInvalidState)}
	}

	// 4. 認可コードをセッションに交換
	session, err := f.issuer.HandleCallback(ctx, p.Code)
	if err != nil {
		slog.Error("oauth code exchange failed", slog.String("error", err.Error()))
		f.metrics.RecordAuthCallback(outcomeExchangeFailed)
		msg := MsgCouldNotAuthenticate
		var exErr *ExchangeError
		if errors.As(err, &exErr) && exErr.Message != "" {
			msg = exErr.Message
		}
		return CallbackResult{RedirectPath: ErrorRedirect(msg)}
	}

	// 5. 招待コードがある場合のみ使用を記録
	if strings.TrimSpace(p.Invite) != "" {
		f.invites.RedeemBestEffort(ctx, p.Invite, session.UserID)
	}

	f.metrics.RecordAuthCallback(outcomeSuccess)
	return CallbackResult{RedirectPath: f.safeNext(p.Next), Session: session}
}

func (f *CallbackFlow) safeNext(next string) string {
	if IsSafeNext(next) {
		return next
	}
	return f.defaultNext
}

// IsSafeNext はnextが同一オリジン内の相対パスかどうかを返す。
func IsSafeNext(next string) bool {
	return strings.HasPrefix(next, "/") &&
		!strings.HasPrefix(next, "//") &&
		!strings.Contains(next, `\`)
}

// ErrorRedirect はエラー表示ページへのパスを生成する。
func ErrorRedirect(msg string) string {
	return authErrorPath + "?error=" + EncodeURIComponent(msg)
}

// EncodeURIComponent はURIコンポーネントとして文字列をパーセントエンコードする。
// 英数字と - _ . ! ~ * ' ( ) 以外をUTF-8バイト単位でエンコードする。
func EncodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreservedComponentByte(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreservedComponentByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
