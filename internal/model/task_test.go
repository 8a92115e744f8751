package model

import (
	"errors"
	"strings"
	"testing"
)

func validTask() *Task {
	return &Task{
		ID:        "task-1",
		OwnerID:   "user-1",
		OwnerName: "Alice",
		Title:     "buy milk",
		Status:    StatusNotStarted,
		Priority:  PriorityMedium,
		Progress:  DefaultTaskProgress,
	}
}

func TestTask_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(task *Task)
		wantCode string
	}{
		{
			name:   "有効なタスクは検証を通過する",
			mutate: func(task *Task) {},
		},
		{
			name:     "タイトル未設定はエラー",
			mutate:   func(task *Task) { task.Title = "" },
			wantCode: ErrCodeTitleRequired,
		},
		{
			name:     "タイトル100文字超はエラー",
			mutate:   func(task *Task) { task.Title = strings.Repeat("a", TaskTitleMaxLength+1) },
			wantCode: ErrCodeTitleTooLong,
		},
		{
			name:   "タイトル100文字ちょうどは許可",
			mutate: func(task *Task) { task.Title = strings.Repeat("a", TaskTitleMaxLength) },
		},
		{
			name:     "説明500文字超はエラー",
			mutate:   func(task *Task) { task.Description = strings.Repeat("b", TaskDescriptionMaxLength+1) },
			wantCode: ErrCodeDescriptionTooLong,
		},
		{
			name:     "未定義のステータスはエラー",
			mutate:   func(task *Task) { task.Status = "Done" },
			wantCode: ErrCodeInvalidStatus,
		},
		{
			name:     "未定義の優先度はエラー",
			mutate:   func(task *Task) { task.Priority = "Urgent" },
			wantCode: ErrCodeInvalidPriority,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := validTask()
			tt.mutate(task)

			err := task.Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Validate() = %v, want *APIError", err)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", apiErr.Code, tt.wantCode)
			}
		})
	}
}

func TestTaskStatus_IsValid(t *testing.T) {
	for _, s := range []TaskStatus{StatusNotStarted, StatusInProgress, StatusCompleted} {
		if !s.IsValid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if TaskStatus("").IsValid() {
		t.Error("empty status should be invalid")
	}
}

func TestTaskPriority_IsValid(t *testing.T) {
	for _, p := range []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh} {
		if !p.IsValid() {
			t.Errorf("%q should be valid", p)
		}
	}
	if TaskPriority("critical").IsValid() {
		t.Error("unknown priority should be invalid")
	}
}
