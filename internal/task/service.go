// Package task はタスク管理のドメインロジックを提供する。
package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
)

// TextSanitizer はユーザー入力テキストのサニタイズインターフェース。
type TextSanitizer interface {
	Sanitize(input string) string
}

// ImageRemover は添付画像ファイルの非同期削除インターフェース。
type ImageRemover interface {
	RemoveAsync(publicPath string)
}

// OperationRecorder はタスク操作のメトリクスを記録するインターフェース。
type OperationRecorder interface {
	RecordTaskOperation(operation string)
}

// CreateInput はタスク作成の入力。
// Status・Priority・Progressが空の場合は既定値を適用する。
type CreateInput struct {
	Title       string
	Description string
	Status      model.TaskStatus
	Priority    model.TaskPriority
	DueDate     *time.Time
	Progress    string
	ImagePath   string
}

// UpdateInput はタスク更新の入力。
// nilのフィールドは「変更しない」を意味する。
// ImagePathが非nilの場合は保存済みの新しい画像で差し替え、
// ClearImageがtrueの場合は差し替えなしで画像を取り外す。
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *model.TaskStatus
	Priority    *model.TaskPriority
	DueDate     *time.Time
	Progress    *string
	ImagePath   *string
	ClearImage  bool
}

// Service はタスクのサービス層。所有者チェックと画像ライフサイクルを担う。
type Service struct {
	taskRepo  repository.TaskRepository
	sanitizer TextSanitizer
	images    ImageRemover
	recorder  OperationRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
// recorderはnilを許容し、その場合メトリクスは記録しない。
func NewService(
	taskRepo repository.TaskRepository,
	sanitizer TextSanitizer,
	images ImageRemover,
	recorder OperationRecorder,
) *Service {
	return &Service{
		taskRepo:  taskRepo,
		sanitizer: sanitizer,
		images:    images,
		recorder:  recorder,
	}
}

// List は所有者のタスク一覧を作成日時の降順で返す。
func (s *Service) List(ctx context.Context, ownerID string) ([]*model.Task, error) {
	tasks, err := s.taskRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Create は認証済みユーザーを所有者としてタスクを作成する。
// タイトルは必須で、その他のフィールドには既定値を適用する。
func (s *Service) Create(ctx context.Context, owner *model.User, input CreateInput) (*model.Task, error) {
	task := &model.Task{
		ID:          uuid.New().String(),
		OwnerID:     owner.ID,
		OwnerName:   owner.DisplayName,
		Title:       s.sanitizer.Sanitize(input.Title),
		Description: s.sanitizer.Sanitize(input.Description),
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		Progress:    s.sanitizer.Sanitize(input.Progress),
		ImagePath:   input.ImagePath,
		CreatedAt:   time.Now(),
	}

	if task.Status == "" {
		task.Status = model.StatusNotStarted
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	if task.Progress == "" {
		task.Progress = model.DefaultTaskProgress
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	slog.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("owner_id", task.OwnerID),
	)
	s.recordOperation("create")

	return task, nil
}

// Update はタスクを部分更新する。所有者以外の更新はNOT_OWNERで拒否する。
// 画像の差し替え・取り外し時は古いファイルを非同期のベストエフォートで削除する。
// 所有者の表示名がタスク側のスナップショットとずれている場合はここで追従させる。
func (s *Service) Update(ctx context.Context, taskID string, requestor *model.User, input UpdateInput) (*model.Task, error) {
	task, err := s.findOwnedTask(ctx, taskID, requestor.ID, "update")
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		task.Title = s.sanitizer.Sanitize(*input.Title)
	}
	if input.Description != nil {
		task.Description = s.sanitizer.Sanitize(*input.Description)
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.Progress != nil {
		task.Progress = s.sanitizer.Sanitize(*input.Progress)
	}

	var staleImage string
	switch {
	case input.ImagePath != nil:
		staleImage = task.ImagePath
		task.ImagePath = *input.ImagePath
	case input.ClearImage:
		staleImage = task.ImagePath
		task.ImagePath = ""
	}

	if task.OwnerName != requestor.DisplayName {
		task.OwnerName = requestor.DisplayName
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}

	if staleImage != "" {
		s.images.RemoveAsync(staleImage)
	}

	slog.Info("task updated",
		slog.String("task_id", task.ID),
		slog.String("owner_id", task.OwnerID),
	)
	s.recordOperation("update")

	return task, nil
}

// Delete はタスクを削除する。所有者以外の削除はNOT_OWNERで拒否する。
// 添付画像があればレコード削除後に非同期のベストエフォートで削除する。
func (s *Service) Delete(ctx context.Context, taskID string, requestor *model.User) error {
	task, err := s.findOwnedTask(ctx, taskID, requestor.ID, "delete")
	if err != nil {
		return err
	}

	if err := s.taskRepo.DeleteByID(ctx, taskID); err != nil {
		return err
	}

	if task.ImagePath != "" {
		s.images.RemoveAsync(task.ImagePath)
	}

	slog.Info("task deleted",
		slog.String("task_id", task.ID),
		slog.String("owner_id", task.OwnerID),
	)
	s.recordOperation("delete")

	return nil
}

// findOwnedTask はタスクを取得し、要求者が所有者であることを確認する。
// 変更系操作の前段として呼び出し、違反時は一切の変更を行わない。
func (s *Service) findOwnedTask(ctx context.Context, taskID, requestorID, action string) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if task == nil {
		return nil, model.NewTaskNotFoundError()
	}
	if task.OwnerID != requestorID {
		slog.Warn("task ownership violation",
			slog.String("task_id", taskID),
			slog.String("owner_id", task.OwnerID),
			slog.String("requestor_id", requestorID),
		)
		return nil, model.NewNotOwnerError(action)
	}
	return task, nil
}

// recordOperation はタスク操作メトリクスを記録する。recorderがnilの場合は何もしない。
func (s *Service) recordOperation(operation string) {
	if s.recorder != nil {
		s.recorder.RecordTaskOperation(operation)
	}
}
