package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultGoogleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
	defaultGoogleUserInfoURL  = "https://www.googleapis.com/oauth2/v3/userinfo"

	// accessTokenMinLength はアクセストークンとみなす資格情報の最小長。
	// これより短い文字列はフォールバック照会を試みずに即座に失敗させる。
	accessTokenMinLength = 50
)

// GoogleClaims はGoogleの認証情報から取得したプロフィールを表す。
type GoogleClaims struct {
	Sub        string
	Email      string
	GivenName  string
	FamilyName string
}

// GoogleVerifierConfig はGoogle認証情報検証の設定。
type GoogleVerifierConfig struct {
	ClientID string

	// テスト用にオーバーライド可能なURL
	TokenInfoURL string
	UserInfoURL  string
}

// GoogleVerifier はクライアントから受け取ったGoogleの資格情報を検証する。
//
// 資格情報の形式は事前に判別できないため、2段階のカスケードで検証する:
//  1. IDトークンとしてtokeninfoエンドポイントで検証し、audienceを照合する
//  2. 失敗時、文字列の形状がアクセストークンらしければuserinfoエンドポイントへ
//     Bearerとして提示しプロフィールを取得する
//
// 形状判定は互換性確保のためのヒューリスティックであり、セキュリティ境界ではない。
// 実際の検証は常にGoogleのエンドポイント側で行われる。
type GoogleVerifier struct {
	config GoogleVerifierConfig
	client *http.Client
}

// NewGoogleVerifier はGoogleVerifierを生成する。
// clientには外部呼び出しのタイムアウトを設定したHTTPクライアントを渡す。
// nilの場合は10秒タイムアウトのクライアントを使用する。
func NewGoogleVerifier(config GoogleVerifierConfig, client *http.Client) *GoogleVerifier {
	if config.TokenInfoURL == "" {
		config.TokenInfoURL = defaultGoogleTokenInfoURL
	}
	if config.UserInfoURL == "" {
		config.UserInfoURL = defaultGoogleUserInfoURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleVerifier{
		config: config,
		client: client,
	}
}

// googleTokenInfo はtokeninfoエンドポイントのレスポンス。
type googleTokenInfo struct {
	Aud        string `json:"aud"`
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// googleUserInfo はuserinfoエンドポイントのレスポンス。
type googleUserInfo struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// Verify は資格情報を検証してプロフィールを返す。
// IDトークン検証とアクセストークンフォールバックのどちらも失敗した場合は
// 上流のステータスやボディを含むエラーを返す。
func (v *GoogleVerifier) Verify(ctx context.Context, credential string) (*GoogleClaims, error) {
	// 1. IDトークンとして検証（優先）
	claims, idTokenErr := v.verifyIDToken(ctx, credential)
	if idTokenErr == nil {
		return claims, nil
	}

	// 2. アクセストークンらしい形状ならuserinfo照会にフォールバック
	if !looksLikeAccessToken(credential) {
		return nil, fmt.Errorf("invalid google token format or type (id token verification: %w)", idTokenErr)
	}

	claims, userInfoErr := v.fetchUserInfo(ctx, credential)
	if userInfoErr != nil {
		return nil, fmt.Errorf("access token fallback failed: %w (id token verification: %v)", userInfoErr, idTokenErr)
	}

	return claims, nil
}

// verifyIDToken は資格情報をIDトークンとしてtokeninfoエンドポイントで検証する。
// 署名・有効期限の検証はGoogle側で行われ、audienceはここで照合する。
func (v *GoogleVerifier) verifyIDToken(ctx context.Context, credential string) (*GoogleClaims, error) {
	reqURL := v.config.TokenInfoURL + "?id_token=" + url.QueryEscape(credential)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokeninfo request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tokeninfo response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("id token rejected with status %d: %s", resp.StatusCode, string(body))
	}

	var info googleTokenInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse tokeninfo response: %w", err)
	}

	// このアプリケーション向けに発行されたトークンのみ受け入れる
	if info.Aud != v.config.ClientID {
		return nil, fmt.Errorf("audience mismatch: %s", info.Aud)
	}
	if info.Sub == "" {
		return nil, fmt.Errorf("empty sub in tokeninfo response")
	}

	return &GoogleClaims{
		Sub:        info.Sub,
		Email:      info.Email,
		GivenName:  info.GivenName,
		FamilyName: info.FamilyName,
	}, nil
}

// fetchUserInfo は資格情報をアクセストークンとしてuserinfoエンドポイントへ提示し、
// プロフィールを取得する。
func (v *GoogleVerifier) fetchUserInfo(ctx context.Context, accessToken string) (*GoogleClaims, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.config.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read userinfo response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var info googleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse userinfo response: %w", err)
	}

	if info.Sub == "" {
		return nil, fmt.Errorf("empty sub in userinfo response")
	}

	return &GoogleClaims{
		Sub:        info.Sub,
		Email:      info.Email,
		GivenName:  info.GivenName,
		FamilyName: info.FamilyName,
	}, nil
}

// looksLikeAccessToken は資格情報の形状がGoogleのアクセストークンらしいかを判定する。
// ya29.プレフィックス、または構造化トークンに整合する区切り文字を含むことを確認する。
func looksLikeAccessToken(credential string) bool {
	if len(credential) <= accessTokenMinLength {
		return false
	}
	return strings.HasPrefix(credential, "ya29.") || strings.Contains(credential, ".")
}

// compile-time interface check
var _ CredentialVerifier = (*GoogleVerifier)(nil)
