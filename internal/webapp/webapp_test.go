package webapp_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsimic/bodystats/internal/webapp"
)

func TestHandler(t *testing.T) {
	handler := webapp.Handler()

	testCases := []struct {
		path         string
		wantContains string
	}{
		{path: "/", wantContains: "<title>Body Stats</title>"},
		{path: "/app.js", wantContains: "fetchChart"},
		{path: "/style.css", wantContains: ".spinner"},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			require.Equal(t, http.StatusOK, rr.Code)
			assert.Contains(t, rr.Body.String(), tc.wantContains)
		})
	}
}

func TestHandler_NotFound(t *testing.T) {
	handler := webapp.Handler()

	req := httptest.NewRequest(http.MethodGet, "/nope.js", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}
