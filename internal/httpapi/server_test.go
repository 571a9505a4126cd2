package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/edirooss/codeeval-server/internal/dispatch"
	"github.com/edirooss/codeeval-server/internal/evalmodel"
	"github.com/edirooss/codeeval-server/internal/evalrunner"
)

type fakeRunner struct {
	verdict evalmodel.Verdict
	stats   evalmodel.ResourceStats
}

func (f *fakeRunner) Run(ctx context.Context, req evalrunner.Request) (evalmodel.Verdict, evalmodel.ResourceStats) {
	return f.verdict, f.stats
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	d := &dispatch.Dispatcher{
		Python:     &fakeRunner{verdict: evalmodel.Passed},
		JavaScript: &fakeRunner{verdict: evalmodel.Passed},
		TypeScript: &fakeRunner{verdict: evalmodel.Passed},
	}
	return New(zaptest.NewLogger(t), Options{
		Addr:               "127.0.0.1:0",
		Dispatcher:         d,
		MaxConcurrentEvals: 4,
	})
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":true,"msg":"healthy"}`, rec.Body.String())
}

func TestEvaluateEndpointReturnsVerdict(t *testing.T) {
	s := newTestServer(t)

	body := `{"uuid":"11111111-1111-1111-1111-111111111111","source":"human-eval","code":"1+1","lang":"python"}`
	req := httptest.NewRequest(http.MethodPost, "/evaluations", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":true`)
	assert.Contains(t, rec.Body.String(), `"data":{`)
}

func TestEvaluateEndpointRejectsMissingUUID(t *testing.T) {
	s := newTestServer(t)

	body := `{"source":"human-eval","code":"1+1","lang":"python"}`
	req := httptest.NewRequest(http.MethodPost, "/evaluations", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvaluateEndpointRejectsTestLengthMismatch(t *testing.T) {
	s := newTestServer(t)

	body := `{"uuid":"11111111-1111-1111-1111-111111111111","source":"livecodebench","code":"x","lang":"python",` +
		`"test":{"inputs":["1","2"],"outputs":["1"]}}`
	req := httptest.NewRequest(http.MethodPost, "/evaluations", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	// §8: a length mismatch is verdict content, not a transport error.
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":false`)
	assert.Contains(t, rec.Body.String(), `number of inputs and outputs mismatch`)
	assert.Contains(t, rec.Body.String(), `"data":null`)
}

func TestEvaluateEndpointRefusesUnsupportedLangWithHTTP200(t *testing.T) {
	s := newTestServer(t)

	body := `{"uuid":"11111111-1111-1111-1111-111111111111","source":"human-eval","code":"1+1","lang":"cobol"}`
	req := httptest.NewRequest(http.MethodPost, "/evaluations", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":false`)
	assert.Contains(t, rec.Body.String(), `"data":null`)
}

func TestEvaluateEndpointRejectsUnknownField(t *testing.T) {
	s := newTestServer(t)

	body := `{"uuid":"x","source":"human-eval","code":"1+1","lang":"python","bogus":true}`
	req := httptest.NewRequest(http.MethodPost, "/evaluations", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunShutsDownOnContextCancel(t *testing.T) {
	s := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
