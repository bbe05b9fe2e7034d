package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestEtagMatches(t *testing.T) {
	const current = `"abc"`

	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{"*", true},
		{`"abc"`, true},
		{`W/"abc"`, true},
		{`"xyz", "abc"`, true},
		{`"xyz"`, false},
		{`abc`, false},
	}

	for _, tt := range tests {
		if got := etagMatches(tt.header, current); got != tt.want {
			t.Fatalf("etagMatches(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}

func TestRespondJSONWithETag_StableAndPrivate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/", func(ctx *gin.Context) {
		RespondJSONWithETag(ctx, http.StatusOK, []string{"errand", "work"})
	})

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))

	etag := first.Header().Get("ETag")
	if etag == "" || etag != second.Header().Get("ETag") {
		t.Fatalf("etag not stable: %q vs %q", etag, second.Header().Get("ETag"))
	}
	if first.Body.String() != `["errand","work"]` {
		t.Fatalf("unexpected body %s", first.Body.String())
	}
	if cc := first.Header().Get("Cache-Control"); cc != "private, no-cache" {
		t.Fatalf("unexpected Cache-Control %q", cc)
	}
}
