package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"urlindex.local/gee"
	"urlindex.local/internal/platform/auth"
)

func newAuthEngine(t *testing.T) (*gee.Engine, auth.TokenService) {
	t.Helper()
	ts, err := auth.NewHS256Service("secret", "issuer", time.Hour)
	if err != nil {
		t.Fatalf("NewHS256Service: %v", err)
	}

	r := gee.New()
	r.Use(gee.Recovery())
	whoami := func(ctx *gee.Context) {
		id, ok := auth.GetIdentity(ctx.Req.Context())
		if !ok {
			ctx.JSON(http.StatusOK, map[string]string{"user_id": ""})
			return
		}
		ctx.JSON(http.StatusOK, map[string]string{"user_id": id.UserID, "role": id.Role})
	}

	r.GET("/optional", AuthOptional(ts), whoami)
	r.GET("/required", AuthRequired(ts), whoami)
	r.GET("/admin", AuthRequired(ts), RequireRole(auth.RoleAdmin), whoami)
	return r, ts
}

func doAuth(r *gee.Engine, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	r, ts := newAuthEngine(t)
	token, err := ts.Sign("2", "user")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if got := doAuth(r, "/required", "").Code; got != http.StatusUnauthorized {
		t.Fatalf("missing header: got %d", got)
	}
	if got := doAuth(r, "/required", "Token "+token).Code; got != http.StatusUnauthorized {
		t.Fatalf("wrong scheme: got %d", got)
	}
	if got := doAuth(r, "/required", "Bearer nope").Code; got != http.StatusUnauthorized {
		t.Fatalf("bad token: got %d", got)
	}
	if got := doAuth(r, "/required", "bearer "+token).Code; got != http.StatusOK {
		t.Fatalf("valid token: got %d", got)
	}
}

func TestAuthOptionalSkipsInvalidToken(t *testing.T) {
	r, ts := newAuthEngine(t)
	token, _ := ts.Sign("7", "user")

	if got := doAuth(r, "/optional", "Bearer broken").Code; got != http.StatusOK {
		t.Fatalf("invalid token should pass through: got %d", got)
	}
	rec := doAuth(r, "/optional", "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, `"user_id":"7"`) {
		t.Fatalf("identity not attached: %s", body)
	}
}

func TestRequireRole(t *testing.T) {
	r, ts := newAuthEngine(t)
	userToken, _ := ts.Sign("2", "user")
	adminToken, _ := ts.Sign("1", "admin")

	if got := doAuth(r, "/admin", "Bearer "+userToken).Code; got != http.StatusForbidden {
		t.Fatalf("user on admin route: got %d, want 403", got)
	}
	if got := doAuth(r, "/admin", "Bearer "+adminToken).Code; got != http.StatusOK {
		t.Fatalf("admin: got %d", got)
	}
}
