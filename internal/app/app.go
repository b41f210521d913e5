package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/lifelog/internal/auth"
	"github.com/hitoshi/lifelog/internal/config"
	"github.com/hitoshi/lifelog/internal/database"
	"github.com/hitoshi/lifelog/internal/decision"
	"github.com/hitoshi/lifelog/internal/export"
	"github.com/hitoshi/lifelog/internal/handler"
	"github.com/hitoshi/lifelog/internal/invite"
	"github.com/hitoshi/lifelog/internal/journal"
	"github.com/hitoshi/lifelog/internal/logger"
	"github.com/hitoshi/lifelog/internal/metrics"
	"github.com/hitoshi/lifelog/internal/middleware"
	"github.com/hitoshi/lifelog/internal/phase"
	"github.com/hitoshi/lifelog/internal/repository"
	"github.com/hitoshi/lifelog/internal/security"
	"github.com/hitoshi/lifelog/internal/user"
	"github.com/hitoshi/lifelog/internal/validation"
	"github.com/hitoshi/lifelog/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// .envと環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. .envの読み込み（既存の環境変数は上書きしない）
	if err := config.LoadDotEnv(""); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 4. 設定されたログレベルで再初期化
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	inv, err := ParseInvocation(args)
	if err != nil {
		return err
	}

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if inv.Command == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(inv.Command)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch inv.Command {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg, inv)
	default:
		return runServe(cfg)
	}
}

// openDatabase は共有の接続ハンドルを生成し、DBが応答するまで待つ。
func openDatabase(ctx context.Context, cfg *config.Config) (*database.Handle, error) {
	handle := database.NewHandle(cfg.DatabaseURL)

	retry := database.DefaultRetryConfig()
	retry.MaxAttempts = cfg.DBConnectAttempts

	if err := database.PingWithRetry(ctx, handle, retry, cfg.UpstreamTimeout); err != nil {
		handle.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return handle, nil
}

// newMetricsRegistry はアプリケーションメトリクスとランタイムメトリクスを登録したレジストリを返す。
func newMetricsRegistry() (*prometheus.Registry, *metrics.Collector) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, metrics.NewCollector(reg)
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	handle, err := openDatabase(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer handle.Close()

	db, err := handle.DB()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	profileRepo := repository.NewPostgresProfileRepo(db)
	privateRepo := repository.NewPostgresPrivateProfileRepo(db)
	inviteRepo := repository.NewPostgresInviteCodeRepo(db)
	decisionRepo := repository.NewPostgresDecisionRepo(db)
	journalRepo := repository.NewPostgresJournalRepo(db)
	phaseRepo := repository.NewPostgresPhaseRepo(db)

	// 3. 共通コンポーネントの初期化
	reg, collector := newMetricsRegistry()
	validator := validation.New()
	sanitizer := security.NewContentSanitizer()

	// 4. ドメインサービスの初期化
	inviteService := invite.NewService(inviteRepo, collector)

	oauthProvider := auth.NewGoogleOAuthProvider(auth.GoogleOAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Timeout:      cfg.UpstreamTimeout,
	})
	authService := auth.NewService(
		oauthProvider, userRepo, sessionRepo, inviteService,
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)
	callbackFlow := auth.NewCallbackFlow(authService, inviteService, collector, cfg.DefaultNextPath)

	userService := user.NewService(userRepo, sessionRepo, profileRepo, privateRepo, validator, sanitizer)
	decisionService := decision.NewService(decisionRepo, phaseRepo, validator, sanitizer)
	journalService := journal.NewService(journalRepo, phaseRepo, validator, sanitizer)
	phaseService := phase.NewService(phaseRepo, validator, sanitizer)
	exportService := export.NewService(decisionRepo, journalRepo, phaseRepo, privateRepo, collector)

	// 5. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitInvite),
	)
	defer rateLimiter.Stop()

	authCfg := handler.AuthHandlerConfig{
		FrontendURL:   cfg.FrontendURL,
		CookieDomain:  cfg.CookieDomain,
		CookieSecure:  cfg.CookieSecure,
		SessionMaxAge: cfg.SessionMaxAge,
	}

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		HealthChecker:     handle,
		SessionFinder:     sessionRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		Metrics:        collector,
		MetricsHandler: metrics.Handler(reg),
		RequestTimeout: cfg.UpstreamTimeout,

		AuthService:    authService,
		InviteService:  inviteService,
		CallbackRunner: callbackFlow,
		AuthConfig:     authCfg,

		ProfileService:  userService,
		DecisionService: decisionService,
		JournalService:  journalService,
		PhaseService:    phaseService,
		ExportService:   exportService,
	})

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return serveUntilSignal(server, "API server")
}

// serveUntilSignal はサーバーを起動し、SIGINTまたはSIGTERMでグレースフルシャットダウンする。
func serveUntilSignal(server *http.Server, name string) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		slog.Info(name+" starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("%s listen failed: %w", name, err)
	case <-stop:
	}

	slog.Info("shutting down " + name + "...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("%s shutdown failed: %w", name, err)
	}

	slog.Info(name + " stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 期限切れセッションのクリーンアップを定期実行し、/metricsと/healthを公開する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	handle, err := openDatabase(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer handle.Close()

	db, err := handle.DB()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. クリーンアップジョブの初期化
	reg, collector := newMetricsRegistry()
	sessionRepo := repository.NewPostgresSessionRepo(db)
	cleanupJob := cleanup.NewCleanupJob(sessionRepo, collector, slog.Default())

	// 3. 監視用エンドポイント
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	mux.Handle("/health", handler.NewHealthHandler(handle))
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker metrics server error", slog.String("error", err.Error()))
		}
	}()

	slog.Info("worker starting",
		slog.Duration("session_cleanup_interval", cfg.SessionCleanupInterval),
	)

	// クリーンアップジョブをメインgoroutineで実行（ブロッキング）
	cleanupJob.Start(ctx, cfg.SessionCleanupInterval)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("worker metrics server shutdown failed", slog.String("error", err.Error()))
	}

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// upで未適用のマイグレーションを適用し、downで直近inv.Steps件を巻き戻し、
// versionで現在のバージョンを表示する。
func runMigrate(cfg *config.Config, inv Invocation) error {
	slog.Info("running database migrations",
		slog.String("action", string(inv.Migrate)),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	switch inv.Migrate {
	case MigrateUp:
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	case MigrateDown:
		if err := database.RollbackMigrations(cfg.DatabaseURL, inv.Steps); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
	case MigrateVersion:
		version, dirty, err := database.MigrationVersion(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to read migration version: %w", err)
		}
		slog.Info("current migration version",
			slog.Uint64("version", uint64(version)),
			slog.Bool("dirty", dirty),
		)
		return nil
	default:
		return fmt.Errorf("unknown migrate action: %s", inv.Migrate)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
