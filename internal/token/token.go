// Package token はセッショントークンの発行と検証を提供する。
// トークンはHS256で署名したJWTで、サーバー側に状態を持たない。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// トークン検証の失敗種別。呼び出し側はこの2種を区別して
// それぞれ異なるメッセージをクライアントへ返す。
var (
	// ErrExpired はトークンの有効期限切れを表す。
	ErrExpired = errors.New("token expired")
	// ErrInvalid は署名不正・形式不正などのトークン異常を表す。
	ErrInvalid = errors.New("invalid token")
)

// Claims は検証済みトークンから取り出した内容を表す。
// DisplayNameは発行時点のスナップショットであり、ユーザーの現在の
// 表示名とは乖離している可能性がある。
type Claims struct {
	UserID      string
	DisplayName string
}

// Issuer はセッショントークンを発行・検証する。
type Issuer struct {
	secret   []byte
	lifetime time.Duration
}

// NewIssuer はIssuerを生成する。
// lifetimeは発行するトークンの有効期間を指定する。
func NewIssuer(secret []byte, lifetime time.Duration) *Issuer {
	return &Issuer{
		secret:   secret,
		lifetime: lifetime,
	}
}

// Issue はユーザーIDと表示名を埋め込んだ署名付きトークンを発行する。
func (i *Issuer) Issue(userID, displayName string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":          userID,
		"display_name": displayName,
		"iat":          now.Unix(),
		"exp":          now.Add(i.lifetime).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify はトークンの署名と有効期限を検証し、クレームを返す。
// 期限切れはErrExpired、それ以外の異常はErrInvalidとして返す。
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		// 署名方式のすり替え（alg=none等）を拒否する
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if !t.Valid {
		return nil, ErrInvalid
	}

	mapClaims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalid
	}

	sub, ok := mapClaims["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalid)
	}

	// display_nameは古いトークンには存在しない場合があるため必須としない
	displayName, _ := mapClaims["display_name"].(string)

	return &Claims{
		UserID:      sub,
		DisplayName: displayName,
	}, nil
}
