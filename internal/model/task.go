package model

import "time"

// TaskStatus はタスクの進行状態を表す。
type TaskStatus string

const (
	StatusNotStarted TaskStatus = "Not Started"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

// IsValid は定義済みのステータスかを返す。
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// TaskPriority はタスクの優先度を表す。
type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
)

// IsValid は定義済みの優先度かを返す。
func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// タスクフィールドの制約。
const (
	TaskTitleMaxLength       = 100
	TaskDescriptionMaxLength = 500
	DefaultTaskProgress      = "0%"
)

// Task はユーザーが所有するタスクを表す。
// OwnerNameは所有者の表示名のスナップショットで、表示専用の非正規化フィールド。
// 所有者が表示名を変更してもタスク側は次回更新時まで古い値のまま残る。
type Task struct {
	ID          string
	OwnerID     string
	OwnerName   string
	Title       string
	Description string
	Status      TaskStatus
	Priority    TaskPriority
	DueDate     *time.Time
	Progress    string
	ImagePath   string // 添付画像の公開パス（例: /uploads/xxx.png）。未添付の場合は空
	CreatedAt   time.Time
}

// Validate はタスクのフィールド制約を検証する。
// 制約違反の場合は対応するAPIErrorを返す。
func (t *Task) Validate() error {
	if t.Title == "" {
		return NewTitleRequiredError()
	}
	if len([]rune(t.Title)) > TaskTitleMaxLength {
		return NewTitleTooLongError()
	}
	if len([]rune(t.Description)) > TaskDescriptionMaxLength {
		return NewDescriptionTooLongError()
	}
	if !t.Status.IsValid() {
		return NewInvalidStatusError(string(t.Status))
	}
	if !t.Priority.IsValid() {
		return NewInvalidPriorityError(string(t.Priority))
	}
	return nil
}
