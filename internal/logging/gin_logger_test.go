package logging

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMaskSensitiveQuery(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"plain params untouched", "locale=en_US", "locale=en_US"},
		{"code masked", "code=SECRETCODE&locale=en_US", "code=%2A%2A%2A&locale=en_US"},
		{"token and state masked", "access_token=tok&state=S123", "access_token=%2A%2A%2A&state=%2A%2A%2A"},
		{"unparseable dropped", "a=%zz", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskSensitiveQuery(tt.raw); got != tt.want {
				t.Errorf("MaskSensitiveQuery(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestMaskSensitiveQueryNeverLeaksValues(t *testing.T) {
	masked := MaskSensitiveQuery("code=TOPSECRET&state=CSRFSECRET&refresh_token=REFRESH")
	for _, secret := range []string{"TOPSECRET", "CSRFSECRET", "REFRESH"} {
		if strings.Contains(masked, secret) {
			t.Errorf("masked query %q still contains %q", masked, secret)
		}
	}
}

func TestGinLogrusRecoveryRepanicsErrAbortHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(GinLogrusRecovery())
	engine.GET("/abort", func(c *gin.Context) {
		panic(http.ErrAbortHandler)
	})

	req := httptest.NewRequest(http.MethodGet, "/abort", nil)
	recorder := httptest.NewRecorder()

	defer func() {
		recovered := recover()
		if recovered == nil {
			t.Fatalf("expected panic, got nil")
		}
		err, ok := recovered.(error)
		if !ok {
			t.Fatalf("expected error panic, got %T", recovered)
		}
		if !errors.Is(err, http.ErrAbortHandler) {
			t.Fatalf("expected ErrAbortHandler, got %v", err)
		}
	}()

	engine.ServeHTTP(recorder, req)
}

func TestGinLogrusRecoveryHandlesRegularPanic(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(GinLogrusRecovery())
	engine.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	recorder := httptest.NewRecorder()

	engine.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", recorder.Code)
	}
}

func TestGinLogrusLoggerTagsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(GinLogrusLogger())
	var gotID, ctxID string
	engine.GET("/token", func(c *gin.Context) {
		gotID = GetGinRequestID(c)
		ctxID = GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/token?code=x", nil)
	engine.ServeHTTP(httptest.NewRecorder(), req)

	if len(gotID) != 8 {
		t.Errorf("request ID = %q, want 8 hex chars", gotID)
	}
	if ctxID != gotID {
		t.Errorf("context request ID = %q, want %q", ctxID, gotID)
	}
}

func TestGetRequestIDAbsent(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID(background) = %q, want empty", got)
	}
}
