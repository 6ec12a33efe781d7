package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

type stubVerifier struct {
	token  string
	claims *ports.Claims
}

func (v *stubVerifier) Verify(_ context.Context, raw string) (*ports.Claims, error) {
	if raw != v.token {
		return nil, domain.ErrInvalidToken
	}
	return v.claims, nil
}

func newStubVerifier() *stubVerifier {
	return &stubVerifier{
		token: "good-token",
		claims: &ports.Claims{
			TokenID:  "jti-1",
			UserID:   "u1",
			Username: "alice",
			Role:     domain.RoleAdmin,
		},
	}
}

func runAuth(t *testing.T, setHeaders func(h http.Header)) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	setHeaders(req.Header)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(newStubVerifier())(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return body["message"]
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(newStubVerifier())(func(c echo.Context) error {
		called = true
		if c.Get(ContextKeyUsername) != "alice" {
			t.Fatalf("username not set")
		}
		if c.Get(ContextKeyRole) != domain.RoleAdmin {
			t.Fatalf("role not set")
		}
		if c.Get(ContextKeyUserID) != "u1" {
			t.Fatalf("user_id not set")
		}
		if claims, ok := c.Get(ContextKeyClaims).(*ports.Claims); !ok || claims.TokenID != "jti-1" {
			t.Fatalf("claims not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_LegacyHeader(t *testing.T) {
	for name, value := range map[string]string{
		"bare":   "good-token",
		"bearer": "Bearer good-token",
	} {
		t.Run(name, func(t *testing.T) {
			rec, called := runAuth(t, func(h http.Header) { h.Set(HeaderAuthToken, value) })
			if !called || rec.Code != http.StatusOK {
				t.Fatalf("expected pass-through, got %d", rec.Code)
			}
		})
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	rec, called := runAuth(t, func(http.Header) {})

	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := messageOf(t, rec); got != "No token, authorization denied" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	for name, value := range map[string]string{
		"wrong scheme": "Token good-token",
		"no token":     "Bearer ",
		"scheme only":  "Bearer",
	} {
		t.Run(name, func(t *testing.T) {
			rec, called := runAuth(t, func(h http.Header) {
				h.Set("Authorization", value)
				h.Set(HeaderAuthToken, "good-token")
			})
			if called {
				t.Fatalf("should not reach next")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if got := messageOf(t, rec); got != "No token, authorization denied" {
				t.Fatalf("unexpected message %q", got)
			}
		})
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	rec, called := runAuth(t, func(h http.Header) { h.Set("Authorization", "Bearer not-a-token") })

	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := messageOf(t, rec); got != "Token is not valid" {
		t.Fatalf("unexpected message %q", got)
	}
}
