// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// CodeはHTTPステータスへのマッピングに使用し、Messageをそのまま
// クライアントへ返す。内部詳細はMessageに含めない。
type APIError struct {
	Code    string // エラーコード
	Message string // クライアント向けメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeDuplicateEmail      = "DUPLICATE_EMAIL"
	ErrCodeMissingFields       = "MISSING_FIELDS"
	ErrCodePasswordTooShort    = "PASSWORD_TOO_SHORT"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodePasswordlessAccount = "PASSWORDLESS_ACCOUNT"
	ErrCodeNoToken             = "NO_TOKEN"
	ErrCodeTokenExpired        = "TOKEN_EXPIRED"
	ErrCodeInvalidToken        = "INVALID_TOKEN"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeVerificationFailed  = "VERIFICATION_FAILED"
	ErrCodeMissingEmail        = "MISSING_EMAIL"
	ErrCodeEmailInUse          = "EMAIL_IN_USE"
	ErrCodeTaskNotFound        = "TASK_NOT_FOUND"
	ErrCodeNotOwner            = "NOT_OWNER"
	ErrCodeTitleRequired       = "TITLE_REQUIRED"
	ErrCodeTitleTooLong        = "TITLE_TOO_LONG"
	ErrCodeDescriptionTooLong  = "DESCRIPTION_TOO_LONG"
	ErrCodeInvalidStatus       = "INVALID_STATUS"
	ErrCodeInvalidPriority     = "INVALID_PRIORITY"
	ErrCodeInvalidDueDate      = "INVALID_DUE_DATE"
	ErrCodeImageTooLarge       = "IMAGE_TOO_LARGE"
	ErrCodeInvalidImageType    = "INVALID_IMAGE_TYPE"
	ErrCodeInvalidEmail        = "INVALID_EMAIL"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
)

// NewDuplicateEmailError は登録済みメールアドレスでの再登録エラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:    ErrCodeDuplicateEmail,
		Message: "User already exists with this email",
	}
}

// NewMissingFieldsError は必須フィールド欠落エラーを生成する。
func NewMissingFieldsError() *APIError {
	return &APIError{
		Code:    ErrCodeMissingFields,
		Message: "Please enter all fields",
	}
}

// NewPasswordTooShortError はパスワード長不足エラーを生成する。
func NewPasswordTooShortError() *APIError {
	return &APIError{
		Code:    ErrCodePasswordTooShort,
		Message: "Password must be at least 6 characters",
	}
}

// NewInvalidEmailError はメールアドレス形式不正エラーを生成する。
func NewInvalidEmailError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidEmail,
		Message: "Please enter a valid email address",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// メールアドレスの存在有無を区別させないため、メッセージは共通にする。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidCredentials,
		Message: "Invalid credentials",
	}
}

// NewPasswordlessAccountError はGoogle登録のみのアカウントへの
// パスワードログイン試行エラーを生成する。
func NewPasswordlessAccountError() *APIError {
	return &APIError{
		Code:    ErrCodePasswordlessAccount,
		Message: "This account was registered with Google. Please use Google login.",
	}
}

// NewNoTokenError はトークン未提示エラーを生成する。
func NewNoTokenError() *APIError {
	return &APIError{
		Code:    ErrCodeNoToken,
		Message: "Not authorized, no token provided.",
	}
}

// NewTokenExpiredError はトークン期限切れエラーを生成する。
func NewTokenExpiredError() *APIError {
	return &APIError{
		Code:    ErrCodeTokenExpired,
		Message: "Token expired. Please log in again.",
	}
}

// NewInvalidTokenError はトークン不正エラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidToken,
		Message: "Invalid token. Not authorized.",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeUserNotFound,
		Message: "User not found for this token.",
	}
}

// NewVerificationFailedError はGoogle認証情報の検証失敗エラーを生成する。
// reasonには上流のステータスやエラー概要を含めてよい。
func NewVerificationFailedError(reason string) *APIError {
	msg := "Google authentication failed"
	if reason != "" {
		msg = msg + ": " + reason
	}
	return &APIError{
		Code:    ErrCodeVerificationFailed,
		Message: msg,
	}
}

// NewMissingEmailError はGoogleプロフィールからメールアドレスを
// 取得できなかった場合のエラーを生成する。
func NewMissingEmailError() *APIError {
	return &APIError{
		Code:    ErrCodeMissingEmail,
		Message: "Could not retrieve email from Google profile.",
	}
}

// NewEmailInUseError はメールアドレスが他のアカウントで使用中のエラーを生成する。
func NewEmailInUseError() *APIError {
	return &APIError{
		Code:    ErrCodeEmailInUse,
		Message: "Email already in use by another account.",
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
func NewTaskNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeTaskNotFound,
		Message: "Task not found",
	}
}

// NewNotOwnerError は所有者以外によるタスク操作エラーを生成する。
func NewNotOwnerError(action string) *APIError {
	return &APIError{
		Code:    ErrCodeNotOwner,
		Message: fmt.Sprintf("Not authorized to %s this task", action),
	}
}

// NewTitleRequiredError はタイトル未入力エラーを生成する。
func NewTitleRequiredError() *APIError {
	return &APIError{
		Code:    ErrCodeTitleRequired,
		Message: "Task title is required.",
	}
}

// NewTitleTooLongError はタイトル長超過エラーを生成する。
func NewTitleTooLongError() *APIError {
	return &APIError{
		Code:    ErrCodeTitleTooLong,
		Message: fmt.Sprintf("Title can not be more than %d characters", TaskTitleMaxLength),
	}
}

// NewDescriptionTooLongError は説明文長超過エラーを生成する。
func NewDescriptionTooLongError() *APIError {
	return &APIError{
		Code:    ErrCodeDescriptionTooLong,
		Message: fmt.Sprintf("Description can not be more than %d characters", TaskDescriptionMaxLength),
	}
}

// NewInvalidStatusError は無効なステータスエラーを生成する。
func NewInvalidStatusError(status string) *APIError {
	return &APIError{
		Code:    ErrCodeInvalidStatus,
		Message: fmt.Sprintf("Invalid status: %s", status),
	}
}

// NewInvalidPriorityError は無効な優先度エラーを生成する。
func NewInvalidPriorityError(priority string) *APIError {
	return &APIError{
		Code:    ErrCodeInvalidPriority,
		Message: fmt.Sprintf("Invalid priority: %s", priority),
	}
}

// NewInvalidDueDateError は期日の形式不正エラーを生成する。
func NewInvalidDueDateError(value string) *APIError {
	return &APIError{
		Code:    ErrCodeInvalidDueDate,
		Message: fmt.Sprintf("Invalid due date: %s", value),
	}
}

// NewImageTooLargeError は画像サイズ超過エラーを生成する。
func NewImageTooLargeError(maxBytes int64) *APIError {
	return &APIError{
		Code:    ErrCodeImageTooLarge,
		Message: fmt.Sprintf("Image exceeds the maximum size of %d bytes", maxBytes),
	}
}

// NewInvalidImageTypeError は画像形式不正エラーを生成する。
func NewInvalidImageTypeError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidImageType,
		Message: "Only image files (jpeg, jpg, png, gif) are allowed!",
	}
}

// NewInvalidRequestError はリクエスト解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidRequest,
		Message: "Failed to parse request body.",
	}
}
