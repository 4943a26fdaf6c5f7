package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AhmedAllulu/articles-backend-sub000/internal/api"
)

func TestRouterRoutes(t *testing.T) {
	called := map[string]bool{}
	mark := func(name string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			called[name] = true
			w.WriteHeader(http.StatusOK)
		}
	}

	router := api.NewRouter(api.Dependencies{
		HealthHandler:   mark("health"),
		StatusHandler:   mark("status"),
		TriggerRefresh:  mark("refresh"),
		TriggerGenerate: mark("generate"),
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	tests := []struct {
		method string
		path   string
		name   string
	}{
		{http.MethodGet, "/api/v1/health", "health"},
		{http.MethodGet, "/api/v1/status", "status"},
		{http.MethodPost, "/api/v1/jobs/trend-refresh/run", "refresh"},
		{http.MethodPost, "/api/v1/jobs/article-generation/run", "generate"},
	}
	for _, tt := range tests {
		req, err := http.NewRequest(tt.method, srv.URL+tt.path, nil)
		assert.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		assert.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, tt.path)
		assert.True(t, called[tt.name], tt.path)
	}
}

func TestRouterMissingHandlerReturns501(t *testing.T) {
	router := api.NewRouter(api.Dependencies{})
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/health")
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestRouterUnknownPath(t *testing.T) {
	router := api.NewRouter(api.Dependencies{})
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/unknown")
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecoveryMiddleware(t *testing.T) {
	router := api.NewRouter(api.Dependencies{
		HealthHandler: func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		},
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/health")
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
