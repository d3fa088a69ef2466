package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Suhaibinator/SNexus/pkg/common"
)

type testSession struct {
	UserID string
}

func newChainRequest(t *testing.T, r *http.Request) (*common.Request[testSession], *common.Response) {
	t.Helper()
	return common.NewRequest[testSession](r, nil), common.NewResponse()
}

// runOne runs a single middleware and reports whether it let the chain proceed.
func runOne(mw common.Middleware[testSession], req *common.Request[testSession], res *common.Response) (*common.Result, bool, error) {
	return common.RunChain([]common.Middleware[testSession]{mw}, req, res)
}

func readAll(t *testing.T, r io.Reader) string {
	t.Helper()
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	return string(b)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	return rr
}

// fakeClock satisfies ratelimit.Clock. Sleep only records the requested pause so tests
// never block; time moves with Advance.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slept += d
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
