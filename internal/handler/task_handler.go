package handler

import (
	"context"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/task"
)

// multipartMaxMemory はmultipartフォーム解析時にメモリへ保持する最大サイズ。
// これを超える部分は一時ファイルへ書き出される。
const multipartMaxMemory = 8 * 1024 * 1024

// dueDateLayouts は受け入れる期日の形式。
var dueDateLayouts = []string{time.RFC3339, "2006-01-02"}

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	List(ctx context.Context, ownerID string) ([]*model.Task, error)
	Create(ctx context.Context, owner *model.User, input task.CreateInput) (*model.Task, error)
	Update(ctx context.Context, taskID string, requestor *model.User, input task.UpdateInput) (*model.Task, error)
	Delete(ctx context.Context, taskID string, requestor *model.User) error
}

// ImageSaver はアップロード画像の保存インターフェース。
// storage.ImageStoreの部分集合として定義する。
type ImageSaver interface {
	// Save は画像を検証して保存し、公開パスを返す。
	Save(file multipart.File, header *multipart.FileHeader) (string, error)
	// RemoveAsync は保存済み画像を非同期のベストエフォートで削除する。
	RemoveAsync(publicPath string)
}

// TaskHandler はタスク管理のHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
	images  ImageSaver
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface, images ImageSaver) *TaskHandler {
	return &TaskHandler{
		service: service,
		images:  images,
	}
}

// List は認証済みユーザーのタスク一覧を返す。
// GET /tasks
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	requestor, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
		return
	}

	tasks, err := h.service.List(r.Context(), requestor.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		responses[i] = toTaskResponse(t)
	}

	writeJSONResponse(w, http.StatusOK, dataResponse{
		Success: true,
		Data:    responses,
	})
}

// Create はタスクを作成する。
// POST /tasks (multipart/form-data、画像フィールドは任意)
// 画像の検証と保存はタスクレコードの作成より先に行い、
// 不正な画像ではレコードを一切永続化しない。
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestor, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
		return
	}

	form, ok := h.parseTaskForm(w, r)
	if !ok {
		return
	}

	input := task.CreateInput{
		Title:       form.value("title"),
		Description: form.value("description"),
		Status:      model.TaskStatus(form.value("status")),
		Priority:    model.TaskPriority(form.value("priority")),
		Progress:    form.value("progress"),
	}

	if raw := form.value("dueDate"); raw != "" {
		due, err := parseDueDate(raw)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidDueDateError(raw))
			return
		}
		input.DueDate = &due
	}

	imagePath, ok := h.saveUploadedImage(w, r)
	if !ok {
		return
	}
	input.ImagePath = imagePath

	created, err := h.service.Create(r.Context(), requestor, input)
	if err != nil {
		// 検証で弾かれた場合、保存済みの画像は孤児になるため削除する
		if imagePath != "" {
			h.images.RemoveAsync(imagePath)
		}
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, dataResponse{
		Success: true,
		Data:    toTaskResponse(created),
	})
}

// Update はタスクを部分更新する。
// PUT /tasks/{id} (multipart/form-data)
// フォームに含まれるフィールドのみを上書きする。
// clearImage=trueは画像の取り外し、新しい画像ファイルは差し替えを意味する。
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestor, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
		return
	}
	taskID := chi.URLParam(r, "id")

	form, ok := h.parseTaskForm(w, r)
	if !ok {
		return
	}

	input := task.UpdateInput{
		Title:       form.lookup("title"),
		Description: form.lookup("description"),
		Progress:    form.lookup("progress"),
	}
	if raw := form.lookup("status"); raw != nil {
		status := model.TaskStatus(*raw)
		input.Status = &status
	}
	if raw := form.lookup("priority"); raw != nil {
		priority := model.TaskPriority(*raw)
		input.Priority = &priority
	}
	if raw := form.lookup("dueDate"); raw != nil {
		due, err := parseDueDate(*raw)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidDueDateError(*raw))
			return
		}
		input.DueDate = &due
	}

	imagePath, ok := h.saveUploadedImage(w, r)
	if !ok {
		return
	}
	if imagePath != "" {
		input.ImagePath = &imagePath
	} else if form.value("clearImage") == "true" || form.value("image") == "null" {
		input.ClearImage = true
	}

	updated, err := h.service.Update(r.Context(), taskID, requestor, input)
	if err != nil {
		// 所有者チェックや検証で弾かれた場合、新しい画像は孤児になるため削除する
		if imagePath != "" {
			h.images.RemoveAsync(imagePath)
		}
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, dataResponse{
		Success: true,
		Data:    toTaskResponse(updated),
	})
}

// Delete はタスクを削除する。
// DELETE /tasks/{id}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestor, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
		return
	}
	taskID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), taskID, requestor); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "Task deleted successfully",
	})
}

// taskForm はmultipartとJSONの両形式を吸収したフォーム値のビュー。
type taskForm struct {
	values map[string][]string
}

// value は指定キーの値を返す。未指定の場合は空文字列。
func (f *taskForm) value(key string) string {
	if vs, ok := f.values[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// lookup は指定キーの値を返す。キー自体が送られていない場合はnil。
// 部分更新で「空に上書き」と「変更しない」を区別するために使用する。
func (f *taskForm) lookup(key string) *string {
	if vs, ok := f.values[key]; ok && len(vs) > 0 {
		v := vs[0]
		return &v
	}
	return nil
}

// parseTaskForm はタスクのフォームフィールドを解析する。
// multipart/form-dataと通常のフォームエンコードの両方を受け入れる。
// 解析失敗時はエラーレスポンスを書き込み、falseを返す。
func (h *TaskHandler) parseTaskForm(w http.ResponseWriter, r *http.Request) (*taskForm, bool) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(multipartMaxMemory); err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
			return nil, false
		}
		return &taskForm{values: r.MultipartForm.Value}, true
	}

	if err := r.ParseForm(); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return nil, false
	}
	return &taskForm{values: r.PostForm}, true
}

// saveUploadedImage はimageフィールドのファイルを検証して保存する。
// ファイルが添付されていない場合は空パスを返す。
// 検証・保存失敗時はエラーレスポンスを書き込み、falseを返す。
func (h *TaskHandler) saveUploadedImage(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.MultipartForm == nil {
		return "", true
	}

	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return "", true
	}
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return "", false
	}
	defer file.Close()

	publicPath, err := h.images.Save(file, header)
	if err != nil {
		handleServiceError(w, err)
		return "", false
	}
	return publicPath, true
}

// parseDueDate は期日文字列を解析する。日付のみの形式も受け入れる。
func parseDueDate(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range dueDateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// SetupTaskRoutes はタスク管理エンドポイントをrに登録する。
// 全ルートが認証済みユーザーを前提とするため、認証ミドルウェアの配下で呼ぶ。
func SetupTaskRoutes(r chi.Router, h *TaskHandler) {
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
		})
	})
}
