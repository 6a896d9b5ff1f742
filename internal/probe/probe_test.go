package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/avezina/shiplift/internal/logging"
)

func testProber(attempts int) *Prober {
	p := New(logging.DefaultLogger())
	p.attempts = attempts
	p.interval = time.Millisecond
	return p
}

func TestWaitHealthyRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res, err := testProber(5).WaitHealthy(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("WaitHealthy: %v", err)
	}
	if res.StatusCode != http.StatusOK || res.Attempts != 3 {
		t.Errorf("result = %+v", res)
	}
}

func TestWaitHealthyAcceptsRedirectTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res, err := testProber(2).WaitHealthy(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("WaitHealthy: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("status = %d", res.StatusCode)
	}
}

func TestWaitHealthyGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := testProber(3).WaitHealthy(context.Background(), srv.URL); err == nil {
		t.Fatal("expected give-up error")
	}
}

func TestWaitHealthyHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := testProber(100)
	p.interval = time.Minute
	if _, err := p.WaitHealthy(ctx, srv.URL); err == nil {
		t.Fatal("expected context cancellation")
	}
}
