// Package model はドメインモデルを定義する。
package model

import (
	"regexp"
	"strings"
	"time"
)

// emailPattern はメールアドレスの形式検証パターン。
// 厳密なRFC準拠は狙わず、明らかな入力ミスだけを弾く。
var emailPattern = regexp.MustCompile(`^.+@.+\..+$`)

// ValidEmail はメールアドレスの形式が妥当かを返す。
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// User はサービス利用ユーザーを表す。
// パスワード認証とGoogle認証のどちらか一方、または両方で認証できる。
// PasswordHashは永続化時のみ保持し、APIレスポンスには含めない。
type User struct {
	ID           string
	Email        string
	PasswordHash string // Googleのみで登録したユーザーは空
	GoogleID     string // Googleと未連携の場合は空
	FirstName    string
	LastName     string
	DisplayName  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword はパスワード認証が可能かを返す。
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// RecomputeDisplayName は表示名を導出して設定する。
// 氏名・メールアドレスを変更する書き込みの前に必ず呼び出すこと。
// フォールバック順: 姓名 → 名のみ → メールのローカル部 → "User"
func (u *User) RecomputeDisplayName() {
	u.DisplayName = DeriveDisplayName(u.FirstName, u.LastName, u.Email)
}

// DeriveDisplayName は氏名とメールアドレスから表示名を導出する。
// どの入力が欠けていても必ず空でない表示名を返す。
func DeriveDisplayName(firstName, lastName, email string) string {
	switch {
	case firstName != "" && lastName != "":
		return firstName + " " + lastName
	case firstName != "":
		return firstName
	case email != "":
		local, _, found := strings.Cut(email, "@")
		if found && local != "" {
			return local
		}
		return email
	default:
		return "User"
	}
}
