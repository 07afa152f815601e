package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/youngeru/internal/auth"
	"github.com/hitoshi/youngeru/internal/community"
	"github.com/hitoshi/youngeru/internal/config"
	"github.com/hitoshi/youngeru/internal/database"
	"github.com/hitoshi/youngeru/internal/forecast"
	"github.com/hitoshi/youngeru/internal/habit"
	"github.com/hitoshi/youngeru/internal/handler"
	"github.com/hitoshi/youngeru/internal/library"
	"github.com/hitoshi/youngeru/internal/logger"
	"github.com/hitoshi/youngeru/internal/metrics"
	"github.com/hitoshi/youngeru/internal/middleware"
	"github.com/hitoshi/youngeru/internal/notify"
	"github.com/hitoshi/youngeru/internal/planner"
	"github.com/hitoshi/youngeru/internal/realtime"
	"github.com/hitoshi/youngeru/internal/repository"
	"github.com/hitoshi/youngeru/internal/safety"
	"github.com/hitoshi/youngeru/internal/security"
	"github.com/hitoshi/youngeru/internal/user"
	"github.com/hitoshi/youngeru/internal/worker/cleanup"
	"github.com/hitoshi/youngeru/internal/worker/reminder"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout はグレースフルシャットダウンの待ち時間。
const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再設定
	logger.SetupDefault(w, cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。SIGINT/SIGTERMでグレースフルに停止する。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
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
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandWorker:
		return runWorker(ctx, cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSeed:
		return runSeed(ctx, cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーとリアルタイム中継を起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	// 1. DB接続
	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// 3. トーストキュー
	notifier, closeQueue, err := openNotifier(ctx, cfg, collector)
	if err != nil {
		return err
	}
	defer closeQueue()

	// 4. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	profileRepo := repository.NewPostgresProfileRepo(db)
	plannerRepo := repository.NewPostgresPlannerSessionRepo(db)
	forecastRepo := repository.NewPostgresForecastRepo(db)
	safetyRepo := repository.NewPostgresSafetyCheckRepo(db)
	habitRepo := repository.NewPostgresHabitRepo(db)
	libraryRepo := repository.NewPostgresLibraryRepo(db)
	questionRepo := repository.NewPostgresQuestionRepo(db)
	answerRepo := repository.NewPostgresAnswerRepo(db)
	reactionRepo := repository.NewPostgresReactionRepo(db)

	// 5. ドメインサービスの初期化
	appLogger := slog.Default()
	authService := auth.NewService(userRepo, sessionRepo, auth.NewTokenIssuer(cfg.SessionSecret),
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)
	userService := user.NewService(userRepo, sessionRepo, profileRepo)
	plannerService := planner.NewService(plannerRepo, notifier, collector, appLogger)
	forecastService := forecast.NewService(forecastRepo, notifier, collector, appLogger)
	safetyService := safety.NewService(safetyRepo, notifier, collector, appLogger)
	habitService := habit.NewService(habitRepo, notifier, cfg.AppTimezone, appLogger)
	libraryService := library.NewService(libraryRepo)
	communityService := community.NewService(
		questionRepo, answerRepo, reactionRepo,
		security.NewContentSanitizer(), notifier, collector, appLogger,
	)

	// 6. リアルタイム配信
	hub := realtime.NewHub(cfg.CORSAllowedOrigin, collector, appLogger)
	listener, err := realtime.NewPQListener(cfg.DatabaseURL, appLogger)
	if err != nil {
		return fmt.Errorf("failed to start community listener: %w", err)
	}
	defer listener.Close()
	relay := realtime.NewRelay(listener, questionRepo, answerRepo, hub, appLogger)

	// 7. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitPost))
	defer rateLimiter.Stop()

	authConfig := handler.AuthHandlerConfig{
		CookieDomain:  cfg.CookieDomain,
		CookieSecure:  cfg.CookieSecure,
		SessionMaxAge: cfg.SessionMaxAge,
	}

	router := handler.NewRouter(&handler.RouterDeps{
		Authenticator:     authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		RateLimiter: rateLimiter,
		Logger:      appLogger,
		Metrics:     collector,

		HealthChecker:  db,
		MetricsHandler: metrics.Handler(reg),

		AuthService: authService,
		AuthConfig:  authConfig,

		PlannerService:   plannerService,
		ForecastService:  forecastService,
		SafetyService:    safetyService,
		HabitService:     habitService,
		CommunityService: communityService,
		LibraryService:   libraryService,
		UserService:      userService,
		Notifications:    notifier,

		Realtime: hub,
	})

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return relay.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down API server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		// Hijack済みのWebSocket接続はShutdownの対象外のため個別に閉じる
		hub.Close()
		if err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 習慣リマインダーと期限切れセッションのクリーンアップを実行する。
// ctxがキャンセルされると停止する。
func runWorker(ctx context.Context, cfg *config.Config) error {
	// 1. DB接続
	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. トーストキュー（APIプロセスと共有するにはRedisが必要）
	if cfg.RedisURL == "" {
		slog.Warn("REDIS_URL is not set; reminders will not reach the API process")
	}
	notifier, closeQueue, err := openNotifier(ctx, cfg, metrics.Nop{})
	if err != nil {
		return err
	}
	defer closeQueue()

	// 3. ジョブの初期化
	scheduler := reminder.NewScheduler(
		repository.NewPostgresHabitRepo(db), notifier, metrics.Nop{},
		cfg.AppTimezone, slog.Default(), cfg.ReminderMaxConcurrent,
	)
	cleanupJob := cleanup.NewCleanupJob(db, slog.Default())

	slog.Info("worker starting",
		slog.Duration("reminder_interval", cfg.ReminderInterval),
		slog.Int("max_concurrent", cfg.ReminderMaxConcurrent),
		slog.Duration("session_cleanup_interval", cfg.SessionCleanupInterval),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scheduler.Start(gctx, cfg.ReminderInterval)
		return nil
	})
	g.Go(func() error {
		cleanupJob.Start(gctx, cfg.SessionCleanupInterval)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
	return nil
}

// runSeed は同梱のライブラリ項目をデータベースに投入する。
// スラッグをキーにupsertするため何度実行してもよい。
func runSeed(ctx context.Context, cfg *config.Config) error {
	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := library.Seed(ctx, repository.NewPostgresLibraryRepo(db), slog.Default())
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	slog.Info("library seed completed", slog.Int("items", n))
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

// openDB はDB接続を開き、疎通を確認する。
func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")
	return db, nil
}

// openNotifier はREDIS_URLの有無に応じたキューでNotifierを生成する。
// 戻り値の関数でキューを閉じる。
func openNotifier(ctx context.Context, cfg *config.Config, m metrics.MetricsCollector) (*notify.Notifier, func(), error) {
	if cfg.RedisURL == "" {
		slog.Info("using in-memory toast queue")
		return notify.NewNotifier(notify.NewMemoryQueue(), m, slog.Default()), func() {}, nil
	}

	queue, err := notify.NewRedisQueue(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("using redis toast queue")
	closeQueue := func() {
		if err := queue.Close(); err != nil {
			slog.Warn("failed to close redis queue", slog.String("error", err.Error()))
		}
	}
	return notify.NewNotifier(queue, m, slog.Default()), closeQueue, nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
