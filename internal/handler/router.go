package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/youngeru/internal/metrics"
	"github.com/hitoshi/youngeru/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator     middleware.SessionAuthenticator
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 機能
	PlannerService   PlannerServiceInterface
	ForecastService  ForecastServiceInterface
	SafetyService    SafetyServiceInterface
	HabitService     HabitServiceInterface
	CommunityService CommunityServiceInterface
	LibraryService   LibraryServiceInterface
	UserService      UserServiceInterface
	Notifications    NotificationDrainer

	// Realtime はコミュニティのWebSocketハブ。
	Realtime http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → (Optional)Session → RateLimit(General) → CSRF
//
// コミュニティへの投稿には投稿専用のレート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	plannerHandler := NewPlannerHandler(deps.PlannerService)
	forecastHandler := NewForecastHandler(deps.ForecastService)
	safetyHandler := NewSafetyHandler(deps.SafetyService)
	habitHandler := NewHabitHandler(deps.HabitService)
	communityHandler := NewCommunityHandler(deps.CommunityService)
	libraryHandler := NewLibraryHandler(deps.LibraryService)
	userHandler := NewUserHandler(deps.UserService, deps.AuthConfig)
	notificationHandler := NewNotificationHandler(deps.Notifications)

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	// --- 認証不要のルート（セッションがあれば閲覧者の状態を反映） ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewOptionalSessionMiddleware(deps.Authenticator))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		r.Post("/api/auth/sign-up", authHandler.SignUp)
		r.Post("/api/auth/sign-in", authHandler.SignIn)
		r.Post("/api/auth/sign-out", authHandler.SignOut)

		r.Post("/api/demo/plan", plannerHandler.Demo)
		r.Post("/api/forecast/preview", forecastHandler.Preview)
		r.Post("/api/safety/check", safetyHandler.Check)

		r.Get("/api/library", libraryHandler.List)
		r.Get("/api/library/{slug}", libraryHandler.Get)

		r.Get("/api/questions", communityHandler.ListQuestions)
		r.Get("/api/questions/{id}/answers", communityHandler.ListAnswers)

		if deps.Realtime != nil {
			r.Get("/api/realtime", deps.Realtime.ServeHTTP)
		}
	})

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.Authenticator))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		r.Get("/api/auth/me", authHandler.Me)

		r.Route("/api/planner/sessions", func(r chi.Router) {
			r.Get("/", plannerHandler.ListSessions)
			r.Post("/", plannerHandler.CreateSession)
		})

		r.Route("/api/forecasts", func(r chi.Router) {
			r.Get("/", forecastHandler.List)
			r.Post("/", forecastHandler.Save)
		})

		r.Route("/api/safety-checks", func(r chi.Router) {
			r.Get("/", safetyHandler.List)
			r.Post("/", safetyHandler.Save)
			r.Get("/{id}/report.png", safetyHandler.Report)
		})

		r.Route("/api/habits", func(r chi.Router) {
			r.Get("/", habitHandler.List)
			r.Post("/", habitHandler.Create)
			r.Post("/{id}/toggle", habitHandler.Toggle)
			r.Delete("/{id}", habitHandler.Delete)
		})

		// コミュニティ投稿（投稿専用レート制限を追加）
		r.With(deps.RateLimiter.PostMiddleware()).Post("/api/questions", communityHandler.CreateQuestion)
		r.With(deps.RateLimiter.PostMiddleware()).Post("/api/questions/{id}/answers", communityHandler.CreateAnswer)
		r.Put("/api/questions/{id}/like", communityHandler.LikeQuestion)
		r.Put("/api/questions/{id}/save", communityHandler.SaveQuestion)
		r.Put("/api/answers/{id}/like", communityHandler.LikeAnswer)

		r.Get("/api/profile", userHandler.GetProfile)
		r.Put("/api/profile", userHandler.UpdateProfile)
		r.Delete("/api/users/me", userHandler.Withdraw)

		r.Get("/api/notifications", notificationHandler.Drain)
	})

	return r
}
