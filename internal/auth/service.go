// Package auth はユーザー登録・ログイン・Google認証のビジネスロジックを提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
)

// bcryptCost はパスワードハッシュのコストパラメータ。
const bcryptCost = 10

// passwordMinLength はパスワードの最小長。
const passwordMinLength = 6

// CredentialVerifier はGoogleの資格情報を検証するインターフェース。
type CredentialVerifier interface {
	// Verify は資格情報を検証してプロフィールを返す。
	Verify(ctx context.Context, credential string) (*GoogleClaims, error)
}

// TokenIssuer はセッショントークンを発行するインターフェース。
// token.Issuerの部分集合として定義する。
type TokenIssuer interface {
	Issue(userID, displayName string) (string, error)
}

// AttemptRecorder は認証試行のメトリクスを記録するインターフェース。
type AttemptRecorder interface {
	RecordAuthAttempt(method, result string)
}

// AuthResult は認証成功時の結果を表す。
type AuthResult struct {
	Token string
	User  *model.User
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	verifier CredentialVerifier
	issuer   TokenIssuer
	recorder AttemptRecorder
}

// NewService はServiceを生成する。
// recorderはnilを許容し、その場合メトリクスは記録しない。
func NewService(
	userRepo repository.UserRepository,
	verifier CredentialVerifier,
	issuer TokenIssuer,
	recorder AttemptRecorder,
) *Service {
	return &Service{
		userRepo: userRepo,
		verifier: verifier,
		issuer:   issuer,
		recorder: recorder,
	}
}

// Register は新規ユーザーを登録し、セッショントークンを発行する。
// 登録済みメールアドレスの場合はDUPLICATE_EMAILエラーを返す。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if input.Email == "" || input.Password == "" {
		return nil, model.NewMissingFieldsError()
	}
	if !model.ValidEmail(input.Email) {
		return nil, model.NewInvalidEmailError()
	}
	if len(input.Password) < passwordMinLength {
		return nil, model.NewPasswordTooShortError()
	}

	existing, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateEmailError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		PasswordHash: string(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	user.RecomputeDisplayName()

	// 事前チェックとの間に同時登録が割り込んだ場合はここでDUPLICATE_EMAILになる
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	s.recordAttempt("password", "register")

	return s.issueFor(user)
}

// Login はメールアドレスとパスワードでログインし、セッショントークンを発行する。
// 資格情報不一致とユーザー不在は同じINVALID_CREDENTIALSエラーとして扱う。
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, model.NewMissingFieldsError()
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.recordAttempt("password", "failure")
		return nil, model.NewInvalidCredentialsError()
	}

	if !user.HasPassword() {
		s.recordAttempt("password", "failure")
		return nil, model.NewPasswordlessAccountError()
	}

	if !VerifyPassword(user, password) {
		s.recordAttempt("password", "failure")
		return nil, model.NewInvalidCredentialsError()
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	s.recordAttempt("password", "success")

	return s.issueFor(user)
}

// GoogleLogin はGoogleの資格情報を検証し、ユーザー解決のうえセッショントークンを発行する。
// 解決順序: google_id一致 → メールアドレス一致（連携）→ 新規作成。
func (s *Service) GoogleLogin(ctx context.Context, credential string) (*AuthResult, error) {
	claims, err := s.verifier.Verify(ctx, credential)
	if err != nil {
		// 上流のステータスやボディを含む詳細はログのみに残す
		slog.Warn("google credential verification failed",
			slog.String("error", err.Error()),
		)
		s.recordAttempt("google", "failure")
		return nil, model.NewVerificationFailedError("")
	}

	if claims.Email == "" {
		s.recordAttempt("google", "failure")
		return nil, model.NewMissingEmailError()
	}

	user, err := s.resolveGoogleUser(ctx, claims)
	if err != nil {
		return nil, err
	}

	s.recordAttempt("google", "success")
	return s.issueFor(user)
}

// resolveGoogleUser は検証済みクレームからユーザーを解決する。
func (s *Service) resolveGoogleUser(ctx context.Context, claims *GoogleClaims) (*model.User, error) {
	user, err := s.userRepo.FindByGoogleID(ctx, claims.Sub)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by google ID: %w", err)
	}
	if user != nil {
		slog.Info("google user logged in", slog.String("user_id", user.ID))
		return user, nil
	}

	// 同一メールアドレスの既存アカウントにはgoogle_idを連携する
	user, err = s.userRepo.FindByEmail(ctx, claims.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user != nil {
		s.linkGoogleIdentity(user, claims)
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to link google identity: %w", err)
		}
		slog.Info("google identity linked to existing user",
			slog.String("user_id", user.ID),
		)
		return user, nil
	}

	// 新規ユーザー: パスワードなしで作成する
	now := time.Now()
	user = &model.User{
		ID:        uuid.New().String(),
		Email:     claims.Email,
		GoogleID:  claims.Sub,
		FirstName: claims.GivenName,
		LastName:  claims.FamilyName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	user.RecomputeDisplayName()

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("new user created via google",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return user, nil
}

// linkGoogleIdentity は既存ユーザーへgoogle_idを連携する。
// 氏名は未設定のフィールドのみ補完し、ユーザーが編集した値は上書きしない。
func (s *Service) linkGoogleIdentity(user *model.User, claims *GoogleClaims) {
	user.GoogleID = claims.Sub

	nameChanged := false
	if user.FirstName == "" && claims.GivenName != "" {
		user.FirstName = claims.GivenName
		nameChanged = true
	}
	if user.LastName == "" && claims.FamilyName != "" {
		user.LastName = claims.FamilyName
		nameChanged = true
	}
	if nameChanged || user.DisplayName == "" {
		user.RecomputeDisplayName()
	}
	user.UpdatedAt = time.Now()
}

// issueFor はユーザーに対するセッショントークンを発行する。
func (s *Service) issueFor(user *model.User) (*AuthResult, error) {
	signed, err := s.issuer.Issue(user.ID, user.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResult{
		Token: signed,
		User:  user,
	}, nil
}

// recordAttempt は認証試行メトリクスを記録する。recorderがnilの場合は何もしない。
func (s *Service) recordAttempt(method, result string) {
	if s.recorder != nil {
		s.recorder.RecordAuthAttempt(method, result)
	}
}

// VerifyPassword は平文パスワードをユーザーのハッシュと照合する。
// パスワードハッシュを持たないユーザーにはエラーではなくfalseを返す。
func VerifyPassword(user *model.User, candidate string) bool {
	if !user.HasPassword() {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(candidate)) == nil
}
