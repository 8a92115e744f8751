// Package user はユーザープロフィール管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
)

// ProfileUpdate はプロフィール更新の入力。
// nilのフィールドは「変更しない」を意味する。
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
}

// Service はユーザープロフィールのサービス層。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{
		userRepo: userRepo,
	}
}

// GetProfile は指定ユーザーのプロフィールを取得する。
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateProfile はプロフィールを部分更新し、更新後のユーザーを返す。
// メールアドレスを変更する場合は他ユーザーとの重複を事前に確認する。
// 氏名またはメールアドレスの変更後は表示名を再計算する。
func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	changed := false

	if update.Email != nil && *update.Email != user.Email {
		if !model.ValidEmail(*update.Email) {
			return nil, model.NewInvalidEmailError()
		}
		other, err := s.userRepo.FindByEmail(ctx, *update.Email)
		if err != nil {
			return nil, fmt.Errorf("メールアドレスの重複確認に失敗しました: %w", err)
		}
		if other != nil && other.ID != user.ID {
			return nil, model.NewEmailInUseError()
		}
		user.Email = *update.Email
		changed = true
	}

	if update.FirstName != nil && *update.FirstName != user.FirstName {
		user.FirstName = *update.FirstName
		changed = true
	}
	if update.LastName != nil && *update.LastName != user.LastName {
		user.LastName = *update.LastName
		changed = true
	}

	if !changed {
		return user, nil
	}

	user.RecomputeDisplayName()
	user.UpdatedAt = time.Now()

	// 事前確認後に他ユーザーが同じアドレスへ変更した場合はここでEMAIL_IN_USEになる
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("user profile updated",
		slog.String("user_id", user.ID),
	)
	return user, nil
}
