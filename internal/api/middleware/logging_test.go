package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogging_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status  int
		level   zapcore.Level
		message string
	}{
		{http.StatusOK, zapcore.InfoLevel, "Request handled"},
		{http.StatusForbidden, zapcore.WarnLevel, "Request rejected"},
		{http.StatusInternalServerError, zapcore.ErrorLevel, "Request failed"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			handler := Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/orders/o1/status", nil))

			assert.Equal(t, tt.status, rec.Code)
			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
			assert.Equal(t, tt.message, entries[0].Message)
			assert.Equal(t, "/admin/orders/o1/status", entries[0].ContextMap()["path"])
			assert.EqualValues(t, tt.status, entries[0].ContextMap()["status"])
		})
	}
}
