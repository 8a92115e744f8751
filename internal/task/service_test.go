package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/taskman/internal/model"
)

type mockTaskRepo struct {
	listByOwnerFunc func(ctx context.Context, ownerID string) ([]*model.Task, error)
	findByIDFunc    func(ctx context.Context, id string) (*model.Task, error)
	createFunc      func(ctx context.Context, task *model.Task) error
	updateFunc      func(ctx context.Context, task *model.Task) error
	deleteByIDFunc  func(ctx context.Context, id string) error
}

func (m *mockTaskRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Task, error) {
	if m.listByOwnerFunc != nil {
		return m.listByOwnerFunc(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockTaskRepo) Create(ctx context.Context, task *model.Task) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, task)
	}
	return nil
}

func (m *mockTaskRepo) Update(ctx context.Context, task *model.Task) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, task)
	}
	return nil
}

func (m *mockTaskRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFunc != nil {
		return m.deleteByIDFunc(ctx, id)
	}
	return nil
}

// passthroughSanitizer は前後の空白除去のみを行うサニタイザー。
type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(input string) string {
	return input
}

// mockImageRemover は削除要求されたパスを記録する。
type mockImageRemover struct {
	removed []string
}

func (m *mockImageRemover) RemoveAsync(publicPath string) {
	m.removed = append(m.removed, publicPath)
}

func newTestService(repo *mockTaskRepo, images *mockImageRemover) *Service {
	if images == nil {
		images = &mockImageRemover{}
	}
	return NewService(repo, passthroughSanitizer{}, images, nil)
}

func testOwner() *model.User {
	return &model.User{
		ID:          "owner-1",
		Email:       "taro@example.com",
		DisplayName: "Taro Yamada",
	}
}

func strPtr(s string) *string {
	return &s
}

func statusPtr(s model.TaskStatus) *model.TaskStatus {
	return &s
}

func priorityPtr(p model.TaskPriority) *model.TaskPriority {
	return &p
}

func assertAPIErrorCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != wantCode {
		t.Errorf("error code = %q, want %q", apiErr.Code, wantCode)
	}
}

func storedTask() *model.Task {
	return &model.Task{
		ID:          "task-1",
		OwnerID:     "owner-1",
		OwnerName:   "Taro Yamada",
		Title:       "Buy milk",
		Description: "2L",
		Status:      model.StatusNotStarted,
		Priority:    model.PriorityMedium,
		Progress:    "0%",
		CreatedAt:   time.Now(),
	}
}

func TestService_Create_既定値を適用してタスクを作成する(t *testing.T) {
	var created *model.Task
	repo := &mockTaskRepo{
		createFunc: func(ctx context.Context, task *model.Task) error {
			created = task
			return nil
		},
	}
	s := newTestService(repo, nil)

	task, err := s.Create(context.Background(), testOwner(), CreateInput{
		Title: "Buy milk",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created == nil {
		t.Fatal("task was not persisted")
	}
	if task.ID == "" {
		t.Error("task ID is empty")
	}
	if task.OwnerID != "owner-1" {
		t.Errorf("OwnerID = %q, want %q", task.OwnerID, "owner-1")
	}
	if task.OwnerName != "Taro Yamada" {
		t.Errorf("OwnerName = %q, want %q", task.OwnerName, "Taro Yamada")
	}
	if task.Status != model.StatusNotStarted {
		t.Errorf("Status = %q, want %q", task.Status, model.StatusNotStarted)
	}
	if task.Priority != model.PriorityMedium {
		t.Errorf("Priority = %q, want %q", task.Priority, model.PriorityMedium)
	}
	if task.Progress != "0%" {
		t.Errorf("Progress = %q, want %q", task.Progress, "0%")
	}
}

func TestService_Create_検証エラーでは永続化しない(t *testing.T) {
	createCalled := false
	repo := &mockTaskRepo{
		createFunc: func(ctx context.Context, task *model.Task) error {
			createCalled = true
			return nil
		},
	}
	s := newTestService(repo, nil)

	tests := []struct {
		name     string
		input    CreateInput
		wantCode string
	}{
		{
			name:     "タイトルが空",
			input:    CreateInput{},
			wantCode: model.ErrCodeTitleRequired,
		},
		{
			name: "ステータスが不正",
			input: CreateInput{
				Title:  "Buy milk",
				Status: model.TaskStatus("Done"),
			},
			wantCode: model.ErrCodeInvalidStatus,
		},
		{
			name: "優先度が不正",
			input: CreateInput{
				Title:    "Buy milk",
				Priority: model.TaskPriority("Urgent"),
			},
			wantCode: model.ErrCodeInvalidPriority,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(context.Background(), testOwner(), tt.input)
			assertAPIErrorCode(t, err, tt.wantCode)
		})
	}
	if createCalled {
		t.Error("Create should not persist invalid tasks")
	}
}

func TestService_Update_指定フィールドのみ上書きする(t *testing.T) {
	var updated *model.Task
	repo := &mockTaskRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Task, error) {
			return storedTask(), nil
		},
		updateFunc: func(ctx context.Context, task *model.Task) error {
			updated = task
			return nil
		},
	}
	s := newTestService(repo, nil)

	task, err := s.Update(context.Background(), "task-1", testOwner(), UpdateInput{
		Status: statusPtr(model.StatusCompleted),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated == nil {
		t.Fatal("task was not persisted")
	}
	if task.Status != model.StatusCompleted {
		t.Errorf("Status = %q, want %q", task.Status, model.StatusCompleted)
	}
	// 指定していないフィールドは維持される
	if task.Title != "Buy milk" {
		t.Errorf("Title = %q, want %q", task.Title, "Buy milk")
	}
	if task.Description != "2L" {
		t.Errorf("Description = %q, want %q", task.Description, "2L")
	}
	if task.Priority != model.PriorityMedium {
		t.Errorf("Priority = %q, want %q", task.Priority, model.PriorityMedium)
	}
}

func TestService_Update_所有者以外は拒否して何も変更しない(t *testing.T) {
	updateCalled := false
	repo := &mockTaskRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Task, error) {
			return storedTask(), nil
		},
		updateFunc: func(ctx context.Context, task *model.Task) error {
			updateCalled = true
			return nil
		},
	}
	s := newTestService(repo, nil)

	intruder := &model.User{ID: "owner-2", DisplayName: "Someone Else"}
	_, err := s.Update(context.Background(), "task-1", intruder, UpdateInput{
		Title: strPtr("Hijacked"),
	})
	assertAPIErrorCode(t, err, model.ErrCodeNotOwner)
	if updateCalled {
		t.Error("Update should not persist changes for non-owners")
	}
}

func TestService_Update_存在しないタスクはエラー(t *testing.T) {
	s := newTestService(&mockTaskRepo{}, nil)

	_, err := s.Update(context.Background(), "missing", testOwner(), UpdateInput{
		Title: strPtr("x"),
	})
	assertAPIErrorCode(t, err, model.ErrCodeTaskNotFound)
}

func TestService_Update_画像差し替えで古いファイルを削除する(t *testing.T) {
	stored := storedTask()
	stored.ImagePath = "/uploads/old.png"
	repo := &mockTaskRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Task, error) {
			return stored, nil
		},
	}
	images := &mockImageRemover{}
	s := newTestService(repo, images)

	task, err := s.Update(context.Background(), "task-1", testOwner(), UpdateInput{
		ImagePath: strPtr("/uploads/new.png"),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if task.ImagePath != "/uploads/new.png" {
		t.Errorf("ImagePath = %q, want %q", task.ImagePath, "/uploads/new.png")
	}
	if len(images.removed) != 1 || images.removed[0] != "/uploads/old.png" {
		t.Errorf("removed = %v, want [/uploads/old.png]", images.removed)
	}
}

func TestService_Update_画像の取り外し(t *testing.T) {
	stored := storedTask()
	stored.ImagePath = "/uploads/old.png"
	repo := &mockTaskRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Task, error) {
			return stored, nil
		},
	}
	images := &mockImageRemover{}
	s := newTestService(repo, images)

	task, err := s.Update(context.Background(), "task-1", testOwner(), UpdateInput{
		ClearImage: true,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if task.ImagePath != "" {
		t.Errorf("ImagePath = %q, want empty", task.ImagePath)
	}
	if len(images.removed) != 1 || images.removed[0] != "/uploads/old.png" {
		t.Errorf("removed = %v, want [/uploads/old.png]", images.removed)
	}
}

func TestService_Update_画像指定なしでは画像に触れない(t *testing.T) {
	stored := storedTask()
	stored.ImagePath = "/uploads/keep.png"
	repo := &mockTaskRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Task, error) {
			return stored, nil
		},
	}
	images := &mockImageRemover{}
	s := newTestService(repo, images)

	task, err := s.Update(context.Background(), "task-1", testOwner(), UpdateInput{
		Title: strPtr("Buy more milk"),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if task.ImagePath != "/uploads/keep.png" {
		t.Errorf("ImagePath = %q, want %q", task.ImagePath, "/uploads/keep.png")
	}
	if len(images.removed) != 0 {
		t.Errorf("removed = %v, want no removals", images.removed)
	}
}

func TestService_Update_所有者の表示名のずれを追従する(t *testing.T) {
	stored := storedTask()
	stored.OwnerName = "Old Name"
	repo := &mockTaskRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Task, error) {
			return stored, nil
		},
	}
	s := newTestService(repo, nil)

	task, err := s.Update(context.Background(), "task-1", testOwner(), UpdateInput{
		Priority: priorityPtr(model.PriorityHigh),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if task.OwnerName != "Taro Yamada" {
		t.Errorf("OwnerName = %q, want refreshed %q", task.OwnerName, "Taro Yamada")
	}
}

func TestService_Delete_タスクと添付画像を削除する(t *testing.T) {
	stored := storedTask()
	stored.ImagePath = "/uploads/attached.jpg"
	deleted := ""
	repo := &mockTaskRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Task, error) {
			return stored, nil
		},
		deleteByIDFunc: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	images := &mockImageRemover{}
	s := newTestService(repo, images)

	if err := s.Delete(context.Background(), "task-1", testOwner()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted != "task-1" {
		t.Errorf("deleted = %q, want %q", deleted, "task-1")
	}
	if len(images.removed) != 1 || images.removed[0] != "/uploads/attached.jpg" {
		t.Errorf("removed = %v, want [/uploads/attached.jpg]", images.removed)
	}
}

func TestService_Delete_所有者以外は拒否する(t *testing.T) {
	deleteCalled := false
	repo := &mockTaskRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Task, error) {
			return storedTask(), nil
		},
		deleteByIDFunc: func(ctx context.Context, id string) error {
			deleteCalled = true
			return nil
		},
	}
	s := newTestService(repo, nil)

	intruder := &model.User{ID: "owner-2"}
	err := s.Delete(context.Background(), "task-1", intruder)
	assertAPIErrorCode(t, err, model.ErrCodeNotOwner)
	if deleteCalled {
		t.Error("Delete should not remove tasks for non-owners")
	}
}

func TestService_Delete_存在しないタスクはエラー(t *testing.T) {
	s := newTestService(&mockTaskRepo{}, nil)

	err := s.Delete(context.Background(), "missing", testOwner())
	assertAPIErrorCode(t, err, model.ErrCodeTaskNotFound)
}

func TestService_List_リポジトリの結果を返す(t *testing.T) {
	repo := &mockTaskRepo{
		listByOwnerFunc: func(ctx context.Context, ownerID string) ([]*model.Task, error) {
			if ownerID != "owner-1" {
				t.Errorf("ownerID = %q, want %q", ownerID, "owner-1")
			}
			return []*model.Task{storedTask()}, nil
		},
	}
	s := newTestService(repo, nil)

	tasks, err := s.List(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("len(tasks) = %d, want 1", len(tasks))
	}
}
