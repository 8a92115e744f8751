package handler

import (
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskman/internal/middleware"
)

// HealthChecker はヘルスチェックで使用する死活確認インターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	Ping() error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ヘルスチェック対象。nilの場合は無条件に200を返す
	HealthChecker HealthChecker

	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	HTTPRecorder      middleware.HTTPRecorder
	Logger            *slog.Logger

	// 認証・プロフィール
	AuthService    AuthServiceInterface
	ProfileService ProfileServiceInterface

	// タスク管理
	TaskService TaskServiceInterface
	ImageStore  ImageSaver

	// 静的配信するアップロード画像のディレクトリ
	UploadDir string

	// Prometheusメトリクスのエンドポイント。nilの場合は公開しない
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics
//
// 認証エンドポイント（/auth/register等）はIP単位のレート制限のみで保護し、
// それ以外のAPIはトークン検証後にユーザー単位のレート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効くミドルウェア
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.HTTPRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPRecorder))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.ProfileService)
	taskHandler := NewTaskHandler(deps.TaskService, deps.ImageStore)

	// --- 認証不要のルート ---

	// 稼働確認
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSONResponse(w, http.StatusOK, messageResponse{
			Success: true,
			Message: "Task Management API",
		})
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.Ping(); err != nil {
				writeJSONResponse(w, http.StatusServiceUnavailable, apiErrorResponse{
					Success: false,
					Error:   "database unavailable",
				})
				return
			}
		}
		writeJSONResponse(w, http.StatusOK, messageResponse{
			Success: true,
			Message: "ok",
		})
	})

	// 認証エンドポイント（ブルートフォース対策のIP単位レート制限付き）
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.AuthMiddleware())

		SetupAuthRoutes(r, authHandler)
	})

	// 運用系エンドポイント
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// アップロード画像の静的配信
	if deps.UploadDir != "" {
		fileServer := http.FileServer(http.Dir(filepath.Clean(deps.UploadDir)))
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier, deps.UserFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		SetupProfileRoutes(r, authHandler)
		SetupTaskRoutes(r, taskHandler)
	})

	// 未定義ルートもJSONで返す
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONResponse(w, http.StatusNotFound, apiErrorResponse{
			Success: false,
			Error:   "Not Found",
		})
	})

	return r
}
