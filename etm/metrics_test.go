// SPDX-License-Identifier: EUPL-1.2

package etm

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, vec.WithLabelValues(labels...).Write(metric))
	return metric.GetCounter().GetValue()
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		err    error
		status int
		want   string
	}{
		{nil, 200, "2xx"},
		{nil, 201, "2xx"},
		{nil, 304, "3xx"},
		{nil, 422, "4xx"},
		{nil, 503, "5xx"},
		{nil, 0, "unknown"},
		{errors.New("dial failure"), 0, "error"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusClass(tt.err, tt.status), "status %d err %v", tt.status, tt.err)
	}
}

func TestRecordAttemptMetrics(t *testing.T) {
	// Label values unique to this test keep counts independent of other
	// tests sharing the default registry.
	const endpoint = "metrics test op"

	recordAttemptMetrics("GET", endpoint, 200, 50*time.Millisecond, nil, false)
	recordAttemptMetrics("GET", endpoint, 502, time.Second, nil, false)
	recordAttemptMetrics("GET", endpoint, 200, 60*time.Millisecond, nil, true)

	assert.Equal(t, 2.0, counterValue(t, requestTotal, "GET", endpoint, "2xx"))
	assert.Equal(t, 1.0, counterValue(t, requestTotal, "GET", endpoint, "5xx"))
	assert.Equal(t, 1.0, counterValue(t, requestErrors, "GET", endpoint, "5xx"))
	assert.Equal(t, 0.0, counterValue(t, requestErrors, "GET", endpoint, "2xx"))
	assert.Equal(t, 1.0, counterValue(t, requestRetries, "GET", endpoint, "2xx"))
}
