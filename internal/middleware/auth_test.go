package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/token"
)

// mockUserFinder はUserFinderのモック実装。
type mockUserFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserFinder) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func newTestIssuer(t *testing.T, lifetime time.Duration) *token.Issuer {
	t.Helper()
	return token.NewIssuer([]byte("test-secret"), lifetime)
}

func protectedHandler(captured **model.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFromContext(r.Context())
		*captured = user
		w.WriteHeader(http.StatusOK)
	})
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponseBody {
	t.Helper()
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return body
}

func TestAuthMiddleware_有効なトークンでユーザーを解決する(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)
	signed, err := issuer.Issue("user-1", "Taro Yamada")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	users := &mockUserFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			if id != "user-1" {
				t.Errorf("id = %q, want %q", id, "user-1")
			}
			return &model.User{ID: "user-1", Email: "taro@example.com", DisplayName: "Taro Yamada"}, nil
		},
	}

	var captured *model.User
	handler := NewAuthMiddleware(issuer, users)(protectedHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if captured == nil || captured.ID != "user-1" {
		t.Errorf("captured user = %+v, want user-1", captured)
	}
}

func TestAuthMiddleware_ヘッダーの欠落は401(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)

	tests := []struct {
		name   string
		header string
	}{
		{name: "ヘッダーなし", header: ""},
		{name: "Bearerスキームでない", header: "Basic dXNlcjpwYXNz"},
		{name: "Bearerのみでトークンなし", header: "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured *model.User
			handler := NewAuthMiddleware(issuer, &mockUserFinder{})(protectedHandler(&captured))

			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			if captured != nil {
				t.Error("handler should not run without a token")
			}
			body := decodeError(t, w)
			if body.Success {
				t.Error("success = true, want false")
			}
		})
	}
}

func TestAuthMiddleware_期限切れトークンは専用のメッセージで401(t *testing.T) {
	issuer := newTestIssuer(t, -time.Minute)
	signed, err := issuer.Issue("user-1", "Taro")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	verifier := newTestIssuer(t, time.Hour)
	var captured *model.User
	handler := NewAuthMiddleware(verifier, &mockUserFinder{})(protectedHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	body := decodeError(t, w)
	if body.Error != model.NewTokenExpiredError().Message {
		t.Errorf("error = %q, want expired token message", body.Error)
	}
}

func TestAuthMiddleware_改ざんトークンは401(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)

	var captured *model.User
	handler := NewAuthMiddleware(issuer, &mockUserFinder{})(protectedHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	body := decodeError(t, w)
	if body.Error != model.NewInvalidTokenError().Message {
		t.Errorf("error = %q, want invalid token message", body.Error)
	}
	if captured != nil {
		t.Error("handler should not run with a tampered token")
	}
}

func TestAuthMiddleware_トークンの主体が存在しない場合は401(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)
	signed, err := issuer.Issue("ghost", "Ghost")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	var captured *model.User
	handler := NewAuthMiddleware(issuer, &mockUserFinder{})(protectedHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if captured != nil {
		t.Error("handler should not run for a deleted user")
	}
}

func TestAuthMiddleware_表示名はレコード側を優先する(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)
	signed, err := issuer.Issue("user-1", "Old Snapshot")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	users := &mockUserFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: "user-1", Email: "taro@example.com", DisplayName: "Current Name"}, nil
		},
	}

	var captured *model.User
	handler := NewAuthMiddleware(issuer, users)(protectedHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if captured == nil {
		t.Fatal("handler did not run")
	}
	if captured.DisplayName != "Current Name" {
		t.Errorf("DisplayName = %q, want record value %q", captured.DisplayName, "Current Name")
	}
}

func TestAuthMiddleware_レコードの表示名が空ならスナップショットを採用する(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)
	signed, err := issuer.Issue("user-1", "Snapshot Name")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	users := &mockUserFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: "user-1", Email: "taro@example.com"}, nil
		},
	}

	var captured *model.User
	handler := NewAuthMiddleware(issuer, users)(protectedHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if captured == nil {
		t.Fatal("handler did not run")
	}
	if captured.DisplayName != "Snapshot Name" {
		t.Errorf("DisplayName = %q, want token snapshot %q", captured.DisplayName, "Snapshot Name")
	}
}

func TestUserFromContext_未注入のコンテキストはエラー(t *testing.T) {
	_, err := UserFromContext(context.Background())
	if err == nil {
		t.Error("expected error for a context without a user")
	}
}
