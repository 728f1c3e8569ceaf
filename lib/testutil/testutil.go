package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ird-scraper/lib/telemetry"
)

// NewPortal starts a fake portal serving `handler` and sets up telemetry for
// the test named `name`. both are torn down when the test finishes.
func NewPortal(t testing.TB, name string, handler http.Handler) *httptest.Server {
	cleanup := telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", name))
	t.Cleanup(cleanup)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}
