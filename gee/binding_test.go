package gee

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type bindTarget struct {
	Input string `json:"input"`
}

func bindEngine(limit int64, got *error) *Engine {
	engine := New()
	engine.POST("/bind", MaxBody(limit), func(ctx *Context) {
		var req bindTarget
		if err := ctx.BindJSON(&req); err != nil {
			*got = err
			return
		}
		ctx.String(http.StatusOK, "%s", req.Input)
	})
	return engine
}

func postBody(engine *Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/bind", strings.NewReader(body))
	engine.ServeHTTP(w, req)
	return w
}

func TestBindJSONAcceptsSingleValue(t *testing.T) {
	var err error
	w := postBody(bindEngine(1024, &err), `{"input":"https://a.com"}`)
	if w.Code != http.StatusOK || w.Body.String() != "https://a.com" {
		t.Fatalf("got %d %q, err=%v", w.Code, w.Body.String(), err)
	}
}

func TestBindJSONRejections(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
		err    error
	}{
		{"empty", ``, http.StatusBadRequest, ErrEmptyBody},
		{"trailing", `{"input":"a"}{"input":"b"}`, http.StatusBadRequest, ErrTrailingData},
		{"too large", `{"input":"` + strings.Repeat("x", 200) + `"}`, http.StatusRequestEntityTooLarge, ErrBodyTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			w := postBody(bindEngine(64, &err), tc.body)
			if w.Code != tc.status {
				t.Fatalf("status: got %d, want %d", w.Code, tc.status)
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("err: got %v, want %v", err, tc.err)
			}
		})
	}
}

func TestBindJSONUnknownField(t *testing.T) {
	var err error
	w := postBody(bindEngine(1024, &err), `{"input":"a","extra":1}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", w.Code)
	}
	if err == nil || !strings.Contains(err.Error(), "extra") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}
