package errors

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverMiddlewareSwallowsPanics(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer RecoverMiddleware()()
		panic("enlace inesperado")
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not finish")
	}
}

func TestErrorStormShutsDown(t *testing.T) {
	var shutdownCalls atomic.Int32
	exited := make(chan int, 1)

	h := &ErrorHandler{
		stopChan:      make(chan struct{}),
		shutdownFunc:  func() { shutdownCalls.Add(1) },
		exit:          func(code int) { exited <- code },
		maxErrors:     2,
		resetInterval: time.Hour,
		checkInterval: 10 * time.Millisecond,
	}
	h.start()
	defer h.Stop()

	for i := 0; i < 3; i++ {
		h.HandlePanic("fallo")
	}

	select {
	case code := <-exited:
		assert.Equal(t, 1, code)
	case <-time.After(2 * time.Second):
		t.Fatal("error storm did not trigger a shutdown")
	}
	assert.Equal(t, int32(1), shutdownCalls.Load())
	assert.Equal(t, int64(3), h.Panics())
}

func TestStopIsIdempotent(t *testing.T) {
	h := &ErrorHandler{
		stopChan:      make(chan struct{}),
		exit:          func(int) {},
		maxErrors:     15,
		resetInterval: time.Hour,
		checkInterval: time.Hour,
	}
	h.start()

	h.Stop()
	assert.NotPanics(t, h.Stop)
}

func TestReportPayload(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	body, err := reportPayload(ReportErrorOptions{Error: "Critical Error", Message: "demasiados errores"}, at)
	require.NoError(t, err)

	var decoded struct {
		Embeds []struct {
			Author      map[string]string `json:"author"`
			Description string            `json:"description"`
			Timestamp   string            `json:"timestamp"`
		} `json:"embeds"`
	}
	require.NoError(t, json.Unmarshal(body, &decoded))
	require.Len(t, decoded.Embeds, 1)
	assert.Equal(t, "Error Critical Error", decoded.Embeds[0].Author["name"])
	assert.Equal(t, "demasiados errores", decoded.Embeds[0].Description)
	assert.True(t, strings.HasPrefix(decoded.Embeds[0].Timestamp, "2026-01-02T03:04:05"))
}

func TestReportRetriesWebhookFailures(t *testing.T) {
	var calls atomic.Int32
	var body atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		body.Store(string(raw))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := newReportClient()
	client.RetryWaitMin = time.Millisecond
	client.RetryWaitMax = 5 * time.Millisecond
	h := &ErrorHandler{webhookURL: srv.URL, client: client}

	h.Report(ReportErrorOptions{Error: "Critical Error", Message: "demasiados errores"})

	assert.Equal(t, int32(2), calls.Load())
	delivered, _ := body.Load().(string)
	assert.Contains(t, delivered, "demasiados errores")
}

func TestReportWithoutWebhookIsNoop(t *testing.T) {
	client := retryablehttp.NewClient()
	h := &ErrorHandler{client: client}
	assert.NotPanics(t, func() {
		h.Report(ReportErrorOptions{Error: "x", Message: "y"})
	})
}
