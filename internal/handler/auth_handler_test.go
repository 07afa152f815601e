package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/youngeru/internal/auth"
	"github.com/hitoshi/youngeru/internal/middleware"
	"github.com/hitoshi/youngeru/internal/model"
)

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	signUpFn         func(ctx context.Context, email, password string) (*auth.SignInResult, error)
	signInFn         func(ctx context.Context, email, password string) (*auth.SignInResult, error)
	signOutFn        func(ctx context.Context, sessionID string) error
	getCurrentUserFn func(ctx context.Context, userID string) (*model.User, error)
}

func (m *mockAuthService) SignUp(ctx context.Context, email, password string) (*auth.SignInResult, error) {
	return m.signUpFn(ctx, email, password)
}

func (m *mockAuthService) SignIn(ctx context.Context, email, password string) (*auth.SignInResult, error) {
	return m.signInFn(ctx, email, password)
}

func (m *mockAuthService) SignOut(ctx context.Context, sessionID string) error {
	return m.signOutFn(ctx, sessionID)
}

func (m *mockAuthService) GetCurrentUser(ctx context.Context, userID string) (*model.User, error) {
	return m.getCurrentUserFn(ctx, userID)
}

var testAuthConfig = AuthHandlerConfig{
	CookieDomain:  "example.com",
	CookieSecure:  true,
	SessionMaxAge: 3600,
}

func testSignInResult(email string) *auth.SignInResult {
	return &auth.SignInResult{
		User: &model.User{
			ID:        "user-123",
			Email:     email,
			CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		Session: &model.Session{ID: "session-abc", UserID: "user-123"},
		Token:   "signed-token",
	}
}

func findSessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

// --- テスト ---

func TestAuthHandler_SignUp_SetsCookie(t *testing.T) {
	var gotEmail, gotPassword string
	svc := &mockAuthService{
		signUpFn: func(_ context.Context, email, password string) (*auth.SignInResult, error) {
			gotEmail, gotPassword = email, password
			return testSignInResult(email), nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig)

	w := httptest.NewRecorder()
	h.SignUp(w, newJSONRequest(http.MethodPost, "/api/auth/sign-up",
		`{"email":"alice@example.com","password":"correct horse"}`))

	assertStatus(t, w, http.StatusCreated)
	if gotEmail != "alice@example.com" || gotPassword != "correct horse" {
		t.Errorf("service got (%q, %q)", gotEmail, gotPassword)
	}

	c := findSessionCookie(t, w)
	if c.Value != "signed-token" {
		t.Errorf("cookie value = %q, want %q", c.Value, "signed-token")
	}
	if !c.HttpOnly || !c.Secure || c.MaxAge != 3600 || c.Domain != "example.com" {
		t.Errorf("unexpected cookie attributes: %+v", c)
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}

	var body userResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ID != "user-123" || body.Email != "alice@example.com" {
		t.Errorf("body = %+v", body)
	}
}

func TestAuthHandler_SignUp_EmailTaken(t *testing.T) {
	svc := &mockAuthService{
		signUpFn: func(context.Context, string, string) (*auth.SignInResult, error) {
			return nil, model.NewEmailTakenError()
		},
	}
	h := NewAuthHandler(svc, testAuthConfig)

	w := httptest.NewRecorder()
	h.SignUp(w, newJSONRequest(http.MethodPost, "/api/auth/sign-up", `{"email":"a@b.c","password":"12345678"}`))

	assertStatus(t, w, http.StatusConflict)
	if len(w.Result().Cookies()) != 0 {
		t.Error("cookie must not be set on failure")
	}
}

func TestAuthHandler_SignIn_InvalidCredentials(t *testing.T) {
	svc := &mockAuthService{
		signInFn: func(context.Context, string, string) (*auth.SignInResult, error) {
			return nil, model.NewInvalidCredentialsError()
		},
	}
	h := NewAuthHandler(svc, testAuthConfig)

	w := httptest.NewRecorder()
	h.SignIn(w, newJSONRequest(http.MethodPost, "/api/auth/sign-in", `{"email":"a@b.c","password":"wrong"}`))

	assertStatus(t, w, http.StatusUnauthorized)
	if code := decodeErrorCode(t, w); code != model.ErrCodeInvalidCredentials {
		t.Errorf("code = %q", code)
	}
}

func TestAuthHandler_SignIn_Success(t *testing.T) {
	svc := &mockAuthService{
		signInFn: func(_ context.Context, email, _ string) (*auth.SignInResult, error) {
			return testSignInResult(email), nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig)

	w := httptest.NewRecorder()
	h.SignIn(w, newJSONRequest(http.MethodPost, "/api/auth/sign-in", `{"email":"a@b.c","password":"12345678"}`))

	assertStatus(t, w, http.StatusOK)
	if c := findSessionCookie(t, w); c.Value != "signed-token" {
		t.Errorf("cookie value = %q", c.Value)
	}
}

func TestAuthHandler_SignOut(t *testing.T) {
	t.Run("with session", func(t *testing.T) {
		var revoked string
		svc := &mockAuthService{
			signOutFn: func(_ context.Context, sessionID string) error {
				revoked = sessionID
				return nil
			},
		}
		h := NewAuthHandler(svc, testAuthConfig)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/sign-out", nil)
		req = req.WithContext(middleware.ContextWithSession(req.Context(), &model.Session{ID: "session-abc", UserID: "user-123"}))
		w := httptest.NewRecorder()
		h.SignOut(w, req)

		assertStatus(t, w, http.StatusNoContent)
		if revoked != "session-abc" {
			t.Errorf("revoked = %q, want %q", revoked, "session-abc")
		}
		if c := findSessionCookie(t, w); c.MaxAge >= 0 || c.Value != "" {
			t.Errorf("cookie must be cleared: %+v", c)
		}
	})

	t.Run("without session", func(t *testing.T) {
		svc := &mockAuthService{
			signOutFn: func(context.Context, string) error {
				t.Error("SignOut must not be called without a session")
				return nil
			},
		}
		h := NewAuthHandler(svc, testAuthConfig)

		w := httptest.NewRecorder()
		h.SignOut(w, httptest.NewRequest(http.MethodPost, "/api/auth/sign-out", nil))

		assertStatus(t, w, http.StatusNoContent)
		findSessionCookie(t, w)
	})

	t.Run("service failure still clears cookie", func(t *testing.T) {
		svc := &mockAuthService{
			signOutFn: func(context.Context, string) error { return errors.New("db down") },
		}
		h := NewAuthHandler(svc, testAuthConfig)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/sign-out", nil)
		req = req.WithContext(middleware.ContextWithSession(req.Context(), &model.Session{ID: "s", UserID: "u"}))
		w := httptest.NewRecorder()
		h.SignOut(w, req)

		assertStatus(t, w, http.StatusNoContent)
		if c := findSessionCookie(t, w); c.MaxAge >= 0 {
			t.Errorf("cookie must be cleared: %+v", c)
		}
	})
}

func TestAuthHandler_Me(t *testing.T) {
	svc := &mockAuthService{
		getCurrentUserFn: func(_ context.Context, userID string) (*model.User, error) {
			return &model.User{ID: userID, Email: "alice@example.com"}, nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig)

	t.Run("authenticated", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Me(w, withUser(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), "user-123"))

		assertStatus(t, w, http.StatusOK)
		var body userResponse
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.ID != "user-123" {
			t.Errorf("id = %q", body.ID)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Me(w, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
		assertStatus(t, w, http.StatusUnauthorized)
	})
}
