package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/mfa-engine/internal/platform/logging"
)

// captureLogger records the last log call's level, message, and fields.
type captureLogger struct {
	lastLevel  string
	lastMsg    string
	lastFields []logging.Field
}

func (l *captureLogger) Debug(msg string, fields ...logging.Field) {
	l.lastLevel, l.lastMsg, l.lastFields = "debug", msg, fields
}
func (l *captureLogger) Info(msg string, fields ...logging.Field) {
	l.lastLevel, l.lastMsg, l.lastFields = "info", msg, fields
}
func (l *captureLogger) Warn(msg string, fields ...logging.Field) {
	l.lastLevel, l.lastMsg, l.lastFields = "warn", msg, fields
}
func (l *captureLogger) Error(msg string, fields ...logging.Field) {
	l.lastLevel, l.lastMsg, l.lastFields = "error", msg, fields
}
func (l *captureLogger) Fatal(msg string, fields ...logging.Field) {
	l.lastLevel, l.lastMsg, l.lastFields = "fatal", msg, fields
}
func (l *captureLogger) With(fields ...logging.Field) logging.Logger { return l }
func (l *captureLogger) Named(name string) logging.Logger            { return l }

func argsToMap(fields []logging.Field) map[string]interface{} {
	m := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	return m
}

func TestRequestLogging_BasicRequest(t *testing.T) {
	logger := &captureLogger{}
	config := DefaultLoggingConfig()
	config.SkipPaths = nil

	handler := RequestLogging(logger, config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("hello"))
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/v1/analysis/run-fba", nil)
	r.Header.Set("X-Request-ID", "req-123")
	handler.ServeHTTP(w, r)

	assert.Equal(t, "info", logger.lastLevel)
	assert.Contains(t, logger.lastMsg, "http request completed")

	argMap := argsToMap(logger.lastFields)
	assert.Equal(t, "GET", argMap["method"])
	assert.Equal(t, "/api/v1/analysis/run-fba", argMap["path"])
	assert.Equal(t, 200, argMap["status"])
	assert.Equal(t, "req-123", argMap["request_id"])
}

func TestRequestLogging_StatusCapture(t *testing.T) {
	logger := &captureLogger{}
	config := DefaultLoggingConfig()
	config.SkipPaths = nil

	handler := RequestLogging(logger, config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/v1/analysis/gap-fill", nil)
	handler.ServeHTTP(w, r)

	argMap := argsToMap(logger.lastFields)
	assert.Equal(t, 201, argMap["status"])
}

func TestRequestLogging_BytesCapture(t *testing.T) {
	logger := &captureLogger{}
	config := DefaultLoggingConfig()
	config.SkipPaths = nil

	body := "response-body-content"
	handler := RequestLogging(logger, config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/test", nil)
	handler.ServeHTTP(w, r)

	argMap := argsToMap(logger.lastFields)
	assert.Equal(t, int64(len(body)), argMap["bytes"])
}

func TestRequestLogging_SkipPaths(t *testing.T) {
	logger := &captureLogger{}
	config := DefaultLoggingConfig()
	config.SkipPaths = []string{"/healthz"}

	handler := RequestLogging(logger, config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/healthz", nil)
	handler.ServeHTTP(w, r)

	assert.Empty(t, logger.lastLevel)
}

func TestRequestLogging_SlowRequest(t *testing.T) {
	logger := &captureLogger{}
	config := DefaultLoggingConfig()
	config.SkipPaths = nil
	config.SlowThreshold = 10 * time.Millisecond

	handler := RequestLogging(logger, config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(20 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/slow", nil)
	handler.ServeHTTP(w, r)

	assert.Equal(t, "warn", logger.lastLevel)
	assert.Contains(t, logger.lastMsg, "slow")
}

func TestRequestLogging_ServerError(t *testing.T) {
	logger := &captureLogger{}
	config := DefaultLoggingConfig()
	config.SkipPaths = nil

	handler := RequestLogging(logger, config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/error", nil)
	handler.ServeHTTP(w, r)

	assert.Equal(t, "error", logger.lastLevel)
	assert.Contains(t, logger.lastMsg, "server error")
}

func TestRequestLogging_ClientError(t *testing.T) {
	logger := &captureLogger{}
	config := DefaultLoggingConfig()
	config.SkipPaths = nil

	handler := RequestLogging(logger, config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/missing", nil)
	handler.ServeHTTP(w, r)

	assert.Equal(t, "warn", logger.lastLevel)
	assert.Contains(t, logger.lastMsg, "client error")
}

func TestRequestLogging_RequestID(t *testing.T) {
	logger := &captureLogger{}
	config := DefaultLoggingConfig()
	config.SkipPaths = nil

	handler := RequestLogging(logger, config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/test", nil)
	r.Header.Set("X-Request-ID", "unique-req-456")
	handler.ServeHTTP(w, r)

	argMap := argsToMap(logger.lastFields)
	assert.Equal(t, "unique-req-456", argMap["request_id"])
}

func TestWrappedResponseWriter_DefaultStatus(t *testing.T) {
	w := httptest.NewRecorder()
	wrapped := newWrappedResponseWriter(w)

	wrapped.Write([]byte("data"))

	assert.Equal(t, http.StatusOK, wrapped.statusCode)
	assert.True(t, wrapped.wroteHeader)
}

func TestWrappedResponseWriter_WriteHeader(t *testing.T) {
	w := httptest.NewRecorder()
	wrapped := newWrappedResponseWriter(w)

	wrapped.WriteHeader(http.StatusNotFound)

	assert.Equal(t, http.StatusNotFound, wrapped.statusCode)
	assert.True(t, wrapped.wroteHeader)
}

func TestWrappedResponseWriter_DoubleWriteHeader(t *testing.T) {
	w := httptest.NewRecorder()
	wrapped := newWrappedResponseWriter(w)

	wrapped.WriteHeader(http.StatusCreated)
	wrapped.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusCreated, wrapped.statusCode)
}

func TestDefaultLoggingConfig(t *testing.T) {
	config := DefaultLoggingConfig()

	assert.Contains(t, config.SkipPaths, "/healthz")
	assert.Contains(t, config.SkipPaths, "/readyz")
	assert.False(t, config.LogRequestBody)
	assert.False(t, config.LogResponseBody)
	assert.Equal(t, 3*time.Second, config.SlowThreshold)
	assert.Equal(t, 1024, config.MaxBodyLogSize)
}
