// Package handler はHTTP APIのハンドラーを提供する。
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskman/internal/auth"
	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/user"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register は新規ユーザーを登録し、セッショントークンを発行する。
	Register(ctx context.Context, input auth.RegisterInput) (*auth.AuthResult, error)
	// Login はメールアドレスとパスワードでログインする。
	Login(ctx context.Context, email, password string) (*auth.AuthResult, error)
	// GoogleLogin はGoogleの資格情報でログインする。
	GoogleLogin(ctx context.Context, credential string) (*auth.AuthResult, error)
}

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	// GetProfile はユーザーのプロフィールを取得する。
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	// UpdateProfile はプロフィールを部分更新する。
	UpdateProfile(ctx context.Context, userID string, update user.ProfileUpdate) (*model.User, error)
}

// AuthHandler は認証・プロフィールのHTTPハンドラー。
type AuthHandler struct {
	authService    AuthServiceInterface
	profileService ProfileServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(authService AuthServiceInterface, profileService ProfileServiceInterface) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		profileService: profileService,
	}
}

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// googleLoginRequest はGoogleログインリクエストのボディ。
// credentialにはIDトークンまたはアクセストークンのどちらかが入る。
type googleLoginRequest struct {
	Credential string `json:"credential"`
}

// updateProfileRequest はプロフィール更新リクエストのボディ。
// 省略されたフィールドは変更しない。
type updateProfileRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
}

// Register はユーザー登録を処理する。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	result, err := h.authService.Register(r.Context(), auth.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeAuthResponse(w, http.StatusCreated, result)
}

// Login はメールアドレスとパスワードによるログインを処理する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeAuthResponse(w, http.StatusOK, result)
}

// GoogleLogin はGoogleの資格情報によるログインを処理する。
// POST /auth/google
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Credential == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldsError())
		return
	}

	result, err := h.authService.GoogleLogin(r.Context(), req.Credential)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeAuthResponse(w, http.StatusOK, result)
}

// GetProfile は認証済みユーザーのプロフィールを返す。
// GET /auth/profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	requestor, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
		return
	}

	profile, err := h.profileService.GetProfile(r.Context(), requestor.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, dataResponse{
		Success: true,
		Data:    toProfileResponse(profile),
	})
}

// UpdateProfile は認証済みユーザーのプロフィールを部分更新する。
// PUT /auth/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	requestor, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
		return
	}

	var req updateProfileRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	updated, err := h.profileService.UpdateProfile(r.Context(), requestor.ID, user.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, dataResponse{
		Success: true,
		Data:    toProfileResponse(updated),
	})
}

// writeAuthResponse は認証成功レスポンスを書き込む。
func writeAuthResponse(w http.ResponseWriter, statusCode int, result *auth.AuthResult) {
	writeJSONResponse(w, statusCode, authResponse{
		Success: true,
		Token:   result.Token,
		Data:    toUserResponse(result.User),
	})
}

// SetupAuthRoutes は認証不要の認証エンドポイントをrに登録する。
// プロフィールルートは認証ミドルウェアの配下で登録する必要があるため、
// SetupProfileRoutesで別途登録する。
func SetupAuthRoutes(r chi.Router, h *AuthHandler) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/google", h.GoogleLogin)
	})
}

// SetupProfileRoutes はプロフィール管理エンドポイントをrに登録する。
func SetupProfileRoutes(r chi.Router, h *AuthHandler) {
	r.Route("/auth/profile", func(r chi.Router) {
		r.Get("/", h.GetProfile)
		r.Put("/", h.UpdateProfile)
	})
}
