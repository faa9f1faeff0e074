// Package errors provides the anti-crash layer of the bot.
// Panics recovered in goroutines are counted; when too many happen inside
// one window the bot reports to the error webhook and shuts down.
package errors

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/pkg/logger"
	"github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
)

// ErrorHandler manages error counting and reporting
type ErrorHandler struct {
	errorCount    int32
	totalPanics   atomic.Int64
	webhookURL    string
	client        *retryablehttp.Client
	stopOnce      sync.Once
	stopChan      chan struct{}
	exit          func(code int)
	shutdownFunc  func()
	maxErrors     int32
	resetInterval time.Duration
	checkInterval time.Duration
}

// ReportErrorOptions contains options for reporting an error
type ReportErrorOptions struct {
	Error   string
	Message string
}

var (
	handler *ErrorHandler
	once    sync.Once
)

// Init initializes the global error handler
func Init(webhookURL string, shutdownFunc func()) *ErrorHandler {
	once.Do(func() {
		handler = NewErrorHandler(webhookURL, shutdownFunc)
	})
	return handler
}

// Get returns the global error handler instance
func Get() *ErrorHandler {
	return handler
}

// NewErrorHandler creates a new ErrorHandler instance
func NewErrorHandler(webhookURL string, shutdownFunc func()) *ErrorHandler {
	h := &ErrorHandler{
		errorCount:    0,
		webhookURL:    webhookURL,
		client:        newReportClient(),
		stopChan:      make(chan struct{}),
		shutdownFunc:  shutdownFunc,
		exit:          os.Exit,
		maxErrors:     15,
		resetInterval: 5 * time.Second,
		checkInterval: 1 * time.Second,
	}

	h.start()
	return h
}

// newReportClient builds the webhook client; 429 and 5xx answers are retried
func newReportClient() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 1 * time.Second
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = 10 * time.Second
	client.Logger = nil
	return client
}

// start begins the error monitoring goroutines
func (h *ErrorHandler) start() {
	// Error reset goroutine - resets error count every 5 seconds
	go func() {
		ticker := time.NewTicker(h.resetInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				atomic.StoreInt32(&h.errorCount, 0)
			case <-h.stopChan:
				return
			}
		}
	}()

	// Error check goroutine - checks for excessive errors
	go func() {
		ticker := time.NewTicker(h.checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if atomic.LoadInt32(&h.errorCount) > h.maxErrors {
					h.shutdown()
					return
				}
			case <-h.stopChan:
				return
			}
		}
	}()
}

// shutdown reports the error storm, runs the shutdown callback and exits
func (h *ErrorHandler) shutdown() {
	start := time.Now()
	logger.Warn("Se detectó un número demasiado alto de errores", "CRITICAL")
	logger.Warn("Apagando...", "CRITICAL")

	h.Report(ReportErrorOptions{
		Error:   "Critical Error",
		Message: "Número inusual de errores en el moderador. Apagando...",
	})

	if h.shutdownFunc != nil {
		h.shutdownFunc()
	}

	logger.Warn(fmt.Sprintf("Finalizando proceso... Tiempo total: %v", time.Since(start)), "CRITICAL")
	h.exit(1)
}

// Stop stops the error monitoring goroutines
func (h *ErrorHandler) Stop() {
	h.stopOnce.Do(func() { close(h.stopChan) })
}

// IncrementError increments the error count
func (h *ErrorHandler) IncrementError() {
	count := atomic.AddInt32(&h.errorCount, 1)
	logger.Error(fmt.Sprintf("Errores en la ventana actual: %d", count), "AntiCrash")
}

// HandlePanic handles a recovered panic
func (h *ErrorHandler) HandlePanic(recovered interface{}) {
	h.totalPanics.Add(1)
	h.IncrementError()
	logger.Debug("Panic no controlado recuperado", "AntiCrash")
	logger.Error(fmt.Sprintf("%v", recovered), "SYS")
}

// Panics returns how many panics were recovered since start
func (h *ErrorHandler) Panics() int64 {
	return h.totalPanics.Load()
}

// Report sends an error report to the Discord webhook
func (h *ErrorHandler) Report(data ReportErrorOptions) {
	if h.webhookURL == "" {
		return
	}

	jsonData, err := reportPayload(data, time.Now())
	if err != nil {
		logger.Error(fmt.Sprintf("No se pudo serializar el reporte: %v", err), "AntiCrash")
		return
	}

	req, err := retryablehttp.NewRequest(http.MethodPost, h.webhookURL, jsonData)
	if err != nil {
		logger.Error(fmt.Sprintf("No se pudo crear la petición al webhook: %v", err), "AntiCrash")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	if h.client == nil {
		h.client = newReportClient()
	}
	resp, err := h.client.Do(req)
	if err != nil {
		logger.Error(fmt.Sprintf("No se pudo enviar el reporte: %v", err), "AntiCrash")
		return
	}
	defer resp.Body.Close()

	logger.Warn(fmt.Sprintf("Reporte enviado al webhook, estado: %d", resp.StatusCode), "AntiCrash")
}

// reportPayload renders an error report as a Discord webhook body
func reportPayload(data ReportErrorOptions, at time.Time) ([]byte, error) {
	embed := map[string]interface{}{
		"author": map[string]string{
			"name": fmt.Sprintf("Error %s", data.Error),
		},
		"description": data.Message,
		"color":       0xFF0000, // Red
		"footer": map[string]string{
			"text": "ChannelGuard",
		},
		"timestamp": at.Format(time.RFC3339),
	}

	return json.Marshal(map[string]interface{}{
		"embeds": []interface{}{embed},
	})
}

// RecoverMiddleware returns a recovery function for use in deferred calls
func RecoverMiddleware() func() {
	return func() {
		if r := recover(); r != nil {
			if handler != nil {
				handler.HandlePanic(r)
			} else {
				logger.Error(fmt.Sprintf("Panic recuperado (sin handler): %v", r), "AntiCrash")
			}
		}
	}
}
