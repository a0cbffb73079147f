package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rewards/internal/core"
	"rewards/internal/services"
	"rewards/internal/store/memory"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	svc := services.NewRewardService(memory.New())
	srv := NewServer(":0", svc, opts...)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv.Handler, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	}
}

func TestReadyReportsFailingCheck(t *testing.T) {
	srv := newTestServer(t, WithReadinessCheck(func(context.Context) error { return errors.New("db gone") }))
	rr := do(t, srv.Handler, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestAddTransactionAndQuery(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv.Handler, http.MethodPost, "/transactions", `{"customerId":"custNew","amount":120,"date":"2025-06-01"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[core.RewardResponse](t, rr)
	assert.Equal(t, int64(90), created.TotalRewards)

	rr = do(t, srv.Handler, http.MethodGet, "/rewards/custNew", "")
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[core.RewardResponse](t, rr)
	assert.Equal(t, core.RewardResponse{
		CustomerID:     "custNew",
		MonthlyRewards: map[string]int64{"June": 90},
		TotalRewards:   90,
	}, got)
}

func TestAddTransactionAcceptsStringAmount(t *testing.T) {
	srv := newTestServer(t)
	rr := do(t, srv.Handler, http.MethodPost, "/transactions", `{"customerId":"c","amount":"100,50","date":"2025-01-01"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, int64(51), decode[core.RewardResponse](t, rr).TotalRewards)
}

func TestAddTransactionRejected(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"negative amount", `{"customerId":"cust5","amount":-100,"date":"2025-03-10"}`, http.StatusUnprocessableEntity},
		{"zero amount", `{"customerId":"cust5","amount":0,"date":"2025-03-10"}`, http.StatusUnprocessableEntity},
		{"missing amount", `{"customerId":"cust5","date":"2025-03-10"}`, http.StatusUnprocessableEntity},
		{"signed string amount", `{"customerId":"cust5","amount":"-3","date":"2025-03-10"}`, http.StatusUnprocessableEntity},
		{"empty customer", `{"customerId":"  ","amount":10,"date":"2025-03-10"}`, http.StatusUnprocessableEntity},
		{"bad date", `{"customerId":"cust5","amount":10,"date":"10/03/2025"}`, http.StatusUnprocessableEntity},
		{"not json", `amount=10`, http.StatusUnprocessableEntity},
		{"unknown field", `{"customerId":"cust5","amount":10,"date":"2025-03-10","extra":1}`, http.StatusUnprocessableEntity},
	}

	srv := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv.Handler, http.MethodPost, "/transactions", tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
			assert.NotEmpty(t, decode[errorResponse](t, rr).Error)
		})
	}

	rr := do(t, srv.Handler, http.MethodGet, "/rewards/cust5", "")
	assert.Equal(t, http.StatusNotFound, rr.Code, "rejected transactions must not create customers")
}

func TestParseAmountNumberAndStringAgree(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"120", "120", nil},
		{"100.5", "100.5", nil},
		{"1e19", "", core.ErrMalformedAmount},
		{"1E2", "", core.ErrMalformedAmount},
		{"1e100000000", "", core.ErrMalformedAmount},
		{"1234567890123456", "", core.ErrMalformedAmount},
		{"0", "", core.ErrInvalidAmount},
	}

	for _, tt := range tests {
		for _, raw := range []string{tt.in, `"` + tt.in + `"`} {
			got, err := parseAmount(json.RawMessage(raw))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr, raw)
				continue
			}
			require.NoError(t, err, raw)
			assert.Equal(t, tt.want, got.String(), raw)
		}
	}

	neg, err := parseAmount(json.RawMessage("-100"))
	require.NoError(t, err)
	assert.Equal(t, "-100", neg.String(), "negative numbers reach the domain check")

	_, err = parseAmount(json.RawMessage("-1e400"))
	assert.ErrorIs(t, err, core.ErrMalformedAmount)
}

func TestAddTransactionRejectsHugeAmountsQuickly(t *testing.T) {
	srv := newTestServer(t)

	for _, amount := range []string{`1e19`, `"1e19"`, `1e100000000`, `-1e100000000`, `99999999999999999999`} {
		done := make(chan *httptest.ResponseRecorder, 1)
		go func() {
			req := httptest.NewRequest(http.MethodPost, "/transactions",
				strings.NewReader(`{"customerId":"c","amount":`+amount+`,"date":"2025-01-01"}`))
			rr := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rr, req)
			done <- rr
		}()

		select {
		case rr := <-done:
			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, amount)
			assert.Contains(t, rr.Body.String(), "malformed amount", amount)
		case <-time.After(2 * time.Second):
			t.Fatalf("amount %s still being processed after 2s", amount)
		}
	}

	rr := do(t, srv.Handler, http.MethodPost, "/transactions", `{"customerId":"c","amount":-100,"date":"2025-01-01"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "greater than zero")
}

func TestRewardsList(t *testing.T) {
	srv := newTestServer(t)
	for _, body := range []string{
		`{"customerId":"cust1","amount":120,"date":"2025-01-15"}`,
		`{"customerId":"cust1","amount":75,"date":"2025-01-20"}`,
		`{"customerId":"cust2","amount":45,"date":"2025-02-01"}`,
	} {
		require.Equal(t, http.StatusCreated, do(t, srv.Handler, http.MethodPost, "/transactions", body).Code)
	}

	rr := do(t, srv.Handler, http.MethodGet, "/rewards", "")
	require.Equal(t, http.StatusOK, rr.Code)
	all := decode[[]core.RewardResponse](t, rr)
	require.Len(t, all, 2)

	byID := map[string]core.RewardResponse{}
	for _, r := range all {
		byID[r.CustomerID] = r
	}
	assert.Equal(t, int64(115), byID["cust1"].TotalRewards)
	assert.Equal(t, int64(115), byID["cust1"].MonthlyRewards["January"])
	assert.Equal(t, int64(0), byID["cust2"].TotalRewards)
}

func TestRewardsListEmpty(t *testing.T) {
	srv := newTestServer(t)
	rr := do(t, srv.Handler, http.MethodGet, "/rewards", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestUnknownCustomerAndRoutes(t *testing.T) {
	srv := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, do(t, srv.Handler, http.MethodGet, "/rewards/nobody", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv.Handler, http.MethodGet, "/nope", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, srv.Handler, http.MethodGet, "/transactions", "").Code)
}

type failingService struct{}

func (failingService) AddTransaction(context.Context, core.Transaction) (core.RewardResponse, error) {
	return core.RewardResponse{}, errors.New("store unavailable")
}

func (failingService) RewardsByCustomer(context.Context, string) (core.RewardResponse, bool, error) {
	return core.RewardResponse{}, false, errors.New("store unavailable")
}

func (failingService) AllRewards(context.Context) ([]core.RewardResponse, error) {
	return nil, errors.New("store unavailable")
}

func TestServiceFailuresAreInternalErrors(t *testing.T) {
	srv := NewServer(":0", failingService{})

	rr := do(t, srv.Handler, http.MethodPost, "/transactions", `{"customerId":"c","amount":10,"date":"2025-01-01"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "store unavailable")

	assert.Equal(t, http.StatusInternalServerError, do(t, srv.Handler, http.MethodGet, "/rewards", "").Code)
	assert.Equal(t, http.StatusInternalServerError, do(t, srv.Handler, http.MethodGet, "/rewards/c", "").Code)
}

func TestRateLimitOnlyAppliesToWrites(t *testing.T) {
	srv := newTestServer(t, WithRateLimit(1))
	body := `{"customerId":"c","amount":10,"date":"2025-01-01"}`

	assert.Equal(t, http.StatusCreated, do(t, srv.Handler, http.MethodPost, "/transactions", body).Code)
	rr := do(t, srv.Handler, http.MethodPost, "/transactions", body)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(t, srv.Handler, http.MethodGet, "/rewards/c", "").Code)
	}
}
