package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/taskman/internal/model"
)

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// profileResponse はプロフィール取得・更新のAPIレスポンス。
type profileResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DisplayName string `json:"displayName"`
}

// taskResponse はタスクのAPIレスポンス。
type taskResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	UserName    string     `json:"userName"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	Progress    string     `json:"progress"`
	Image       string     `json:"image,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// authResponse は認証成功時のAPIレスポンス。
type authResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	Data    userResponse `json:"data"`
}

// dataResponse はデータを持つ成功レスポンスの汎用エンベロープ。
type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// messageResponse は確認メッセージのみの成功レスポンス。
type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}
}

// toProfileResponse はmodel.Userからプロフィールレスポンスに変換する。
func toProfileResponse(user *model.User) profileResponse {
	return profileResponse{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		DisplayName: user.DisplayName,
	}
}

// toTaskResponse はmodel.TaskからAPIレスポンスに変換する。
func toTaskResponse(task *model.Task) taskResponse {
	return taskResponse{
		ID:          task.ID,
		UserID:      task.OwnerID,
		UserName:    task.OwnerName,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		DueDate:     task.DueDate,
		Progress:    task.Progress,
		Image:       task.ImagePath,
		CreatedAt:   task.CreatedAt,
	}
}

// decodeJSONBody はリクエストボディをJSONとしてデコードする。
// 失敗時はエラーレスポンスを書き込み、falseを返す。
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return false
	}
	return true
}

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSONResponse(w, statusCode, apiErrorResponse{
		Success: false,
		Error:   apiErr.Message,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Server Error",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeDuplicateEmail,
		model.ErrCodeMissingFields,
		model.ErrCodePasswordTooShort,
		model.ErrCodeInvalidEmail,
		model.ErrCodeInvalidCredentials,
		model.ErrCodePasswordlessAccount,
		model.ErrCodeMissingEmail,
		model.ErrCodeEmailInUse,
		model.ErrCodeTitleRequired,
		model.ErrCodeTitleTooLong,
		model.ErrCodeDescriptionTooLong,
		model.ErrCodeInvalidStatus,
		model.ErrCodeInvalidPriority,
		model.ErrCodeInvalidDueDate,
		model.ErrCodeImageTooLarge,
		model.ErrCodeInvalidImageType,
		model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeNoToken,
		model.ErrCodeTokenExpired,
		model.ErrCodeInvalidToken,
		model.ErrCodeVerificationFailed,
		model.ErrCodeNotOwner:
		return http.StatusUnauthorized
	case model.ErrCodeTaskNotFound,
		model.ErrCodeUserNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
