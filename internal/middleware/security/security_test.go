package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"direct public peer ignores headers", "203.0.113.7:4000", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "203.0.113.7"},
		{"trusted proxy forwards first hop", "10.0.0.2:4000", map[string]string{"X-Forwarded-For": "198.51.100.9, 10.0.0.1"}, "198.51.100.9"},
		{"trusted proxy with real ip", "127.0.0.1:1", map[string]string{"X-Real-IP": "198.51.100.10"}, "198.51.100.10"},
		{"trusted proxy with garbage header", "192.168.1.1:1", map[string]string{"X-Forwarded-For": "not-an-ip"}, "192.168.1.1"},
		{"unparseable remote addr", "weird", nil, "weird"},
	}

	resolver := NewClientIPResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := resolver.ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAddTrustedProxy(t *testing.T) {
	resolver := NewClientIPResolver()
	if err := resolver.AddTrustedProxy("nope"); err == nil {
		t.Fatal("expected error for invalid CIDR")
	}
	if err := resolver.AddTrustedProxy("203.0.113.0/24"); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:4000"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	if got := resolver.ClientIP(req); got != "198.51.100.1" {
		t.Errorf("ClientIP() = %q", got)
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/rewards", nil))
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" || rr.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("missing headers: %v", rr.Header())
	}
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("HSTS must not be sent over plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/rewards", nil)
	req.TLS = &tls.ConnectionState{}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Fatalf("HSTS = %q", got)
	}
}
