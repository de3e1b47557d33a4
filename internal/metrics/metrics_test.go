package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "error", Result(errors.New("x")))
}

func TestHandlerExposesCounters(t *testing.T) {
	before := testutil.ToFloat64(HistoryWrites.WithLabelValues("ok"))
	HistoryWrites.WithLabelValues("ok").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(HistoryWrites.WithLabelValues("ok")))

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "weather_proxy_history_writes_total"))
}
