package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hugh/stockroom/internal/api"
	"github.com/hugh/stockroom/internal/auth"
	"github.com/hugh/stockroom/internal/ledger"
	"github.com/hugh/stockroom/internal/policy"
	"github.com/hugh/stockroom/internal/tasks"
	"github.com/hugh/stockroom/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestRouter(t *testing.T, loginAttempts int) (*api.Router, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)
	logger := testutil.DiscardLogger()
	authService := auth.NewService(tc.DB, tc.JWTService, logger)

	router := api.NewRouter(api.RouterConfig{
		DB:            tc.DB,
		Logger:        logger,
		AuthService:   authService,
		Ledger:        ledger.New(tc.DB, ledger.Options{RecordZeroDelta: true}, logger),
		Policy:        policy.NewService(tc.DB, authService, tasks.NewDispatcher(nil, logger), logger),
		RateLimitReqs: 1000,
		RateLimitSecs: 60,
		LoginAttempts: loginAttempts,
	})
	t.Cleanup(router.Close)
	return router, tc
}

func TestRouter_Routes(t *testing.T) {
	router, tc := newTestRouter(t, 0)
	defer tc.Cleanup()

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"health", "GET", "/health", "", http.StatusOK},
		{"ready", "GET", "/ready", "", http.StatusOK},
		{"metrics", "GET", "/metrics", "", http.StatusOK},
		{"items without token", "GET", "/api/items", "", http.StatusUnauthorized},
		{"items", "GET", "/api/items", tc.Token, http.StatusOK},
		{"activities", "GET", "/api/activities", tc.Token, http.StatusOK},
		{"company info", "GET", "/api/companies/info", tc.Token, http.StatusOK},
		{"users as member", "GET", "/api/users", tc.Token, http.StatusForbidden},
		{"users as admin", "GET", "/api/users", tc.AdminToken, http.StatusOK},
		{"garbage token", "GET", "/api/items", "garbage", http.StatusUnauthorized},
		{"unknown route", "GET", "/api/nope", tc.Token, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.AuthenticatedRequest(t, tt.method, tt.path, nil, tt.token)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			testutil.AssertStatus(t, rr, tt.status)
			assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
		})
	}
}

func TestRouter_LoginRateLimit(t *testing.T) {
	router, tc := newTestRouter(t, 2)
	defer tc.Cleanup()

	body := map[string]string{"email": tc.Member.Email, "password": "wrong-password"}
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/auth/login", body)
		req.RemoteAddr = "198.51.100.9:1234"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}
