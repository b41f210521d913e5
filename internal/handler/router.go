package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/lifelog/internal/metrics"
	"github.com/hitoshi/lifelog/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	HealthChecker     HealthChecker
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	Metrics           metrics.MetricsCollector
	MetricsHandler    http.Handler
	// RequestTimeout は各リクエストの処理上限時間。0の場合は適用しない。
	RequestTimeout time.Duration

	// 認証
	AuthService    AuthServiceInterface
	InviteService  InviteValidator
	CallbackRunner CallbackRunner
	AuthConfig     AuthHandlerConfig

	// ドメイン
	ProfileService  ProfileServiceInterface
	DecisionService DecisionServiceInterface
	JournalService  JournalServiceInterface
	PhaseService    PhaseServiceInterface
	ExportService   ExportServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP → Logging → Recovery → Metrics → SecurityHeaders → CORS
//	  → (/api/*) Session → CSRF → RateLimit(General)
//
// 認証ルート（/auth/*）と招待コード検証はセッション不要。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mc := deps.Metrics
	if mc == nil {
		mc = metrics.Nop{}
	}

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewMetricsMiddleware(mc))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.RequestTimeout > 0 {
		r.Use(chimw.Timeout(deps.RequestTimeout))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.InviteService, deps.CallbackRunner, deps.AuthConfig)
	inviteHandler := NewInviteHandler(deps.InviteService)
	profileHandler := NewProfileHandler(deps.ProfileService, deps.AuthConfig)
	decisionHandler := NewDecisionHandler(deps.DecisionService)
	journalHandler := NewJournalHandler(deps.JournalService)
	phaseHandler := NewPhaseHandler(deps.PhaseService)
	exportHandler := NewExportHandler(deps.ExportService)

	// --- 認証不要のルート ---

	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker))
	}
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// 招待コード検証はIP単位のレート制限のみ適用する
	r.With(deps.RateLimiter.InviteMiddleware()).Post("/api/invites/validate", inviteHandler.Validate)

	r.Route("/auth", func(r chi.Router) {
		// OAuthフロー
		r.Get("/google/login", authHandler.Login)
		r.Get("/callback", authHandler.Callback)

		// メール・パスワードと匿名サインイン
		r.With(deps.RateLimiter.InviteMiddleware()).Post("/signup", authHandler.SignUp)
		r.Post("/signin", authHandler.SignIn)
		r.With(deps.RateLimiter.InviteMiddleware()).Post("/anonymous", authHandler.Anonymous)

		// セッション管理
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/profile", func(r chi.Router) {
			r.Get("/", profileHandler.GetProfile)
			r.Patch("/preferences", profileHandler.UpdatePreferences)
			r.Get("/username/availability", profileHandler.CheckUsername)
			r.Put("/username", profileHandler.UpdateUsername)
			r.Delete("/", profileHandler.DeleteAccount)
		})

		r.Get("/api/private-profile", profileHandler.GetPrivateProfile)
		r.Put("/api/private-profile", profileHandler.PutPrivateProfile)

		r.Get("/api/export", exportHandler.Export)

		r.Route("/api/decisions", func(r chi.Router) {
			r.Get("/", decisionHandler.List)
			r.Post("/", decisionHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", decisionHandler.Get)
				r.Patch("/", decisionHandler.Update)
				r.Delete("/", decisionHandler.Delete)
				r.Post("/reflections", decisionHandler.AddReflection)
			})
		})

		r.Route("/api/journal", func(r chi.Router) {
			r.Get("/", journalHandler.List)
			r.Post("/", journalHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", journalHandler.Get)
				r.Patch("/", journalHandler.Update)
				r.Delete("/", journalHandler.Delete)
			})
		})

		r.Route("/api/phases", func(r chi.Router) {
			r.Get("/", phaseHandler.List)
			r.Post("/", phaseHandler.Create)
			r.Get("/active", phaseHandler.GetActive)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", phaseHandler.Get)
				r.Patch("/", phaseHandler.Update)
				r.Delete("/", phaseHandler.Delete)
				r.Post("/goals", phaseHandler.AddGoal)
			})
		})

		r.Patch("/api/goals/{id}", phaseHandler.UpdateGoal)
	})

	return r
}
