// SPDX-License-Identifier: EUPL-1.2

package etm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/quintel/goetm/internal/telemetry"
	"github.com/quintel/goetm/models"
)

// request describes one engine call. The body is a byte slice so retries can
// replay it.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	accept      string
}

const maxErrorBody = 1024

// do performs the request with rate limiting and retries. Transport failures
// and 5xx responses are retried with exponential backoff; 4xx responses are
// permanent.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	rawURL := c.endpoint(req.path, req.query)

	tracer := telemetry.Tracer("goetm.etm")
	ctx, span := tracer.Start(ctx, "etm.engine.request", trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("http.method", req.method),
		attribute.String("http.route", req.path),
		attribute.String("etm.operation", req.op),
	)
	defer span.End()

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.backoff
	expo.MaxInterval = c.maxBackoff

	start := time.Now()
	attempt := 0
	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		attempt++
		return c.attempt(ctx, tracer, req, rawURL, attempt)
	},
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(c.maxRetries+1)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.logger.Warn().
				Err(err).
				Str("operation", req.op).
				Dur("backoff", wait).
				Msg("engine request failed, retry scheduled")
		}),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var engErr *EngineError
		if errors.As(err, &engErr) {
			span.SetAttributes(attribute.Int("http.status_code", engErr.Status))
		}
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	c.logger.Debug().
		Str("operation", req.op).
		Str("method", req.method).
		Str("path", req.path).
		Int("attempts", attempt).
		Dur("duration", time.Since(start)).
		Msg("engine request completed")
	return body, nil
}

// attempt performs a single HTTP exchange. Retryable failures come back as
// plain errors; everything the engine definitively rejected is wrapped in
// backoff.Permanent.
func (c *Client) attempt(ctx context.Context, tracer trace.Tracer, req request, rawURL string, attempt int) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "etm.engine.request.attempt", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.Int("attempt", attempt),
		attribute.Bool("retry", attempt > 1),
	)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, backoff.Permanent(err)
		}
	}

	var bodyReader io.Reader
	if len(req.body) > 0 {
		bodyReader = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, rawURL, bodyReader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, backoff.Permanent(err)
	}
	c.applyHeaders(httpReq, req)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	start := time.Now()
	resp, err := c.HTTPClient.Do(httpReq)
	duration := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	recordAttemptMetrics(req.method, req.op, status, duration, err, attempt > 1)
	span.SetAttributes(telemetry.HTTPAttributes(req.method, req.path, req.path, status)...)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &EngineError{
			Sentinel:  transportSentinel(err),
			Operation: req.op,
			Err:       err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &EngineError{
			Sentinel:  ErrEngineUnavailable,
			Operation: req.op,
			Status:    status,
			Err:       err,
		}
	}

	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		span.SetStatus(codes.Ok, "")
		return payload, nil
	}

	engErr := c.responseError(req.op, status, payload)
	span.SetStatus(codes.Error, http.StatusText(status))
	if status >= http.StatusInternalServerError {
		return nil, engErr
	}
	return nil, backoff.Permanent(engErr)
}

func (c *Client) applyHeaders(httpReq *http.Request, req request) {
	httpReq.Header.Set("User-Agent", c.userAgent)
	accept := req.accept
	if accept == "" {
		accept = "application/json"
	}
	httpReq.Header.Set("Accept", accept)
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// responseError maps an engine error status onto the sentinel taxonomy. For
// 422 responses the errors of the body are decoded.
func (c *Client) responseError(op string, status int, payload []byte) *EngineError {
	engErr := &EngineError{
		Sentinel:  sentinelForStatus(status),
		Operation: op,
		Status:    status,
	}

	if status == http.StatusUnprocessableEntity {
		if errs := decodeEngineErrors(payload); len(errs) > 0 {
			engErr.Errors = errs
			return engErr
		}
	}

	if len(payload) > 0 {
		body := string(payload)
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		engErr.Body = body
	}
	return engErr
}

// decodeEngineErrors extracts the messages of a 422 body. The engine emits
// two shapes: a flat list `{"errors":["..."]}` and, for input validation,
// a field map `{"errors":{"field":["..."]}}`. Map entries are flattened to
// "field: message" lines, ordered by field so rendering is stable.
func decodeEngineErrors(payload []byte) []string {
	var asList struct {
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(payload, &asList); err == nil && len(asList.Errors) > 0 {
		return asList.Errors
	}

	var asMap struct {
		Errors map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(payload, &asMap); err != nil || len(asMap.Errors) == 0 {
		return nil
	}

	fields := make([]string, 0, len(asMap.Errors))
	for field := range asMap.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var errs []string
	for _, field := range fields {
		for _, msg := range asMap.Errors[field] {
			errs = append(errs, field+": "+msg)
		}
	}
	return errs
}

func sentinelForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnprocessableEntity:
		return ErrUnprocessable
	}
	if status >= http.StatusInternalServerError {
		return ErrEngineError
	}
	return ErrUnprocessable
}

func transportSentinel(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return ErrEngineUnavailable
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	payload, err := c.do(ctx, request{op: op, method: http.MethodGet, path: path, query: query})
	if err != nil {
		return err
	}
	return c.decodeJSON(op, payload, out)
}

func (c *Client) postJSON(ctx context.Context, op, path string, body, out any) error {
	return c.sendJSON(ctx, op, http.MethodPost, path, body, out)
}

func (c *Client) putJSON(ctx context.Context, op, path string, body, out any) error {
	return c.sendJSON(ctx, op, http.MethodPut, path, body, out)
}

func (c *Client) sendJSON(ctx context.Context, op, method, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("etm: %s: encode request: %w", op, err)
	}
	payload, err := c.do(ctx, request{
		op:          op,
		method:      method,
		path:        path,
		body:        encoded,
		contentType: "application/json",
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return c.decodeJSON(op, payload, out)
}

func (c *Client) delete(ctx context.Context, op, path string) error {
	_, err := c.do(ctx, request{op: op, method: http.MethodDelete, path: path})
	return err
}

// getCSV fetches a tabular endpoint and parses it into a frame.
func (c *Client) getCSV(ctx context.Context, op, path string, query url.Values) (*models.Frame, error) {
	payload, err := c.do(ctx, request{op: op, method: http.MethodGet, path: path, query: query, accept: "text/csv"})
	if err != nil {
		return nil, err
	}
	frame, err := models.ReadFrame(bytes.NewReader(payload))
	if err != nil {
		return nil, &EngineError{Sentinel: ErrBadResponse, Operation: op, Err: err}
	}
	return frame, nil
}

// putMultipart uploads payload as a form file named field with the given
// filename and decodes the JSON response into out when non-nil.
func (c *Client) putMultipart(ctx context.Context, op, path, field, filename string, payload []byte, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("etm: %s: build form: %w", op, err)
	}
	if _, err := part.Write(payload); err != nil {
		return fmt.Errorf("etm: %s: write form: %w", op, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("etm: %s: close form: %w", op, err)
	}

	resp, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodPut,
		path:        path,
		body:        buf.Bytes(),
		contentType: writer.FormDataContentType(),
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return c.decodeJSON(op, resp, out)
}

func (c *Client) decodeJSON(op string, payload []byte, out any) error {
	if err := json.Unmarshal(payload, out); err != nil {
		return &EngineError{Sentinel: ErrBadResponse, Operation: op, Err: err}
	}
	return nil
}
