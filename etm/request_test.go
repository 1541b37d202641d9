// SPDX-License-Identifier: EUPL-1.2

package etm

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{"id": 1}`))
	}), Options{Token: "s3cret"})

	_, err := client.Scenario(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "goetm/"+Version, got.Get("User-Agent"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, "Bearer s3cret", got.Get("Authorization"))
}

func TestRequestContentTypeOnWrites(t *testing.T) {
	var contentType string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{"scenario": {"id": 1}}`))
	}), Options{})

	_, err := client.UpdateScenario(context.Background(), 1, ScenarioAttrs{Source: "test"})
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"id": 7}`))
	}), Options{MaxRetries: 3})

	scenario, err := client.Scenario(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, scenario.ID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}), Options{MaxRetries: 2})

	_, err := client.Scenario(context.Background(), 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEngineError)
	assert.Equal(t, int32(3), calls.Load(), "initial attempt plus two retries")
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors": ["area_code is unknown", "end_year must be present"]}`))
	}), Options{MaxRetries: 3})

	_, err := client.Scenario(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	assert.ErrorIs(t, err, ErrUnprocessable)

	var engErr *EngineError
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, http.StatusUnprocessableEntity, engErr.Status)
	assert.Equal(t, []string{"area_code is unknown", "end_year must be present"}, engErr.Errors)
	assert.Contains(t, err.Error(),
		"ETEngine returned the following error(s):\n > area_code is unknown\n > end_year must be present")
}

func TestFieldMapErrorsAreFlattened(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors": {"user_values": ["value out of range", "unknown input"], "area_code": ["is unknown"]}}`))
	}), Options{})

	_, err := client.Scenario(context.Background(), 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnprocessable)

	var engErr *EngineError
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, []string{
		"area_code: is unknown",
		"user_values: value out of range",
		"user_values: unknown input",
	}, engErr.Errors)
	assert.Empty(t, engErr.Body, "decoded errors must replace the raw body")
	assert.Contains(t, err.Error(),
		"ETEngine returned the following error(s):\n > area_code: is unknown\n > user_values: value out of range\n > user_values: unknown input")
}

func TestStatusSentinels(t *testing.T) {
	tests := []struct {
		status   int
		sentinel error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusUnprocessableEntity, ErrUnprocessable},
		{http.StatusTooManyRequests, ErrUnprocessable},
		{http.StatusInternalServerError, ErrEngineError},
		{http.StatusServiceUnavailable, ErrEngineError},
	}

	for _, tt := range tests {
		assert.ErrorIs(t, sentinelForStatus(tt.status), tt.sentinel, "status %d", tt.status)
	}
}

func TestTransportSentinel(t *testing.T) {
	assert.ErrorIs(t, transportSentinel(context.DeadlineExceeded), ErrTimeout)
	assert.ErrorIs(t, transportSentinel(errors.New("connection refused")), ErrEngineUnavailable)
}

func TestTimeoutMapsToSentinel(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(250 * time.Millisecond)
		_, _ = w.Write([]byte(`{"id": 1}`))
	}), Options{Timeout: 20 * time.Millisecond, MaxRetries: 1})

	_, err := client.Scenario(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestMalformedResponse(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>definitely not json</html>`))
	}), Options{})

	_, err := client.Scenario(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestErrorBodyIsTruncated(t *testing.T) {
	huge := make([]byte, 4096)
	for i := range huge {
		huge[i] = 'x'
	}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write(huge)
	}), Options{})

	_, err := client.Scenario(context.Background(), 1)
	require.Error(t, err)

	var engErr *EngineError
	require.ErrorAs(t, err, &engErr)
	assert.Len(t, engErr.Body, maxErrorBody)
}

func TestEngineErrorFormat(t *testing.T) {
	err := &EngineError{
		Sentinel:  ErrUnprocessable,
		Operation: "create scenario",
		Status:    422,
		Errors:    []string{"end_year must be present"},
	}

	assert.Equal(t,
		"etm: create scenario: engine: request rejected (HTTP 422): "+
			"ETEngine returned the following error(s):\n > end_year must be present",
		err.Error())
	assert.ErrorIs(t, err, ErrUnprocessable)
}

func TestEngineErrorFormatTransport(t *testing.T) {
	err := &EngineError{
		Sentinel:  ErrEngineUnavailable,
		Operation: "fetch scenario",
		Err:       errors.New("dial tcp: connection refused"),
	}

	assert.Equal(t,
		"etm: fetch scenario: engine: host unreachable or transport failure: dial tcp: connection refused",
		err.Error())
}
