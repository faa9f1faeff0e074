package moderation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestHTTPValidatorClassifiesStatus(t *testing.T) {
	tests := []struct {
		name string
		code int
		want models.LinkStatus
	}{
		{"ok", http.StatusOK, models.StatusReachable},
		{"redirect kept", http.StatusNotModified, models.StatusReachable},
		{"forbidden is broken", http.StatusForbidden, models.StatusUnreachable},
		{"not found is inconclusive", http.StatusNotFound, models.StatusUnknown},
		{"server error is inconclusive", http.StatusInternalServerError, models.StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
			}))
			defer srv.Close()

			v := NewHTTPValidator(srv.Client())
			assert.Equal(t, tt.want, v.Check(context.Background(), srv.URL, time.Second))
		})
	}
}

func TestHTTPValidatorFallsBackToGet(t *testing.T) {
	var (
		mu      sync.Mutex
		methods []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		methods = append(methods, r.Method)
		mu.Unlock()
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	v := NewHTTPValidator(srv.Client())
	assert.Equal(t, models.StatusUnreachable, v.Check(context.Background(), srv.URL, time.Second))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{http.MethodHead, http.MethodGet}, methods)
}

func TestHTTPValidatorCustomBrokenCodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	v := NewHTTPValidator(srv.Client(), http.StatusForbidden, http.StatusGone)
	assert.Equal(t, models.StatusUnreachable, v.Check(context.Background(), srv.URL, time.Second))
}

func TestHTTPValidatorTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	v := NewHTTPValidator(srv.Client())

	start := time.Now()
	status := v.Check(context.Background(), srv.URL, 50*time.Millisecond)

	assert.Equal(t, models.StatusUnknown, status)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestHTTPValidatorNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	v := NewHTTPValidator(nil)
	assert.Equal(t, models.StatusUnknown, v.Check(context.Background(), url, time.Second))
	assert.Equal(t, models.StatusUnknown, v.Check(context.Background(), "http://[::1", time.Second))
}
