package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMiddlewareGeneratesID(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromRequest(r)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("expected generated id, got %q", seen)
	}
	if got := rr.Header().Get(HeaderRequestID); got != seen {
		t.Fatalf("response header %q, context %q", got, seen)
	}
}

func TestMiddlewareKeepsValidIncomingID(t *testing.T) {
	tests := []struct {
		incoming string
		keep     bool
	}{
		{"abc-123", true},
		{"trace.id_42", true},
		{"", false},
		{"has space", false},
		{strings.Repeat("a", 65), false},
	}

	for _, tt := range tests {
		var seen string
		h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = FromRequest(r)
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, tt.incoming)
		h.ServeHTTP(httptest.NewRecorder(), req)

		if (seen == tt.incoming) != tt.keep {
			t.Errorf("incoming %q: got %q, keep=%v", tt.incoming, seen, tt.keep)
		}
	}
}
