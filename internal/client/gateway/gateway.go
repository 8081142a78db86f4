package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/researcher/internal/common"
	"github.com/dmitrijs2005/researcher/internal/logging"
)

const maxResponseBody = 10 << 20

// Outcome labels reported to the Recorder besides numeric status codes.
const (
	OutcomeTransportError = "transport_error"
	OutcomeCanceled       = "canceled"
)

// Recorder receives one observation per request that reached the wire.
type Recorder interface {
	ObserveRequest(method, outcome string, elapsed time.Duration)
}

// RawBody is a pre-encoded request body, e.g. multipart form data.
type RawBody struct {
	Reader      io.Reader
	ContentType string
}

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if v == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type Gateway struct {
	baseURL        string
	client         *http.Client
	tokenSource    func() string
	onUnauthorized func(token string)
	errorSink      func(message string)
	limiter        *rate.Limiter
	metrics        Recorder
	log            logging.Logger
}

type Option func(*Gateway)

// WithTokenSource sets where the bearer token is read from before each call.
func WithTokenSource(fn func() string) Option {
	return func(g *Gateway) { g.tokenSource = fn }
}

// WithUnauthorizedHandler is called after a 401 has been published, with
// the token the failing request carried.
func WithUnauthorizedHandler(fn func(token string)) Option {
	return func(g *Gateway) { g.onUnauthorized = fn }
}

// WithErrorSink receives the normalized message of every failed call.
func WithErrorSink(fn func(message string)) Option {
	return func(g *Gateway) { g.errorSink = fn }
}

func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.client = c }
}

func WithLimiter(l *rate.Limiter) Option {
	return func(g *Gateway) { g.limiter = l }
}

func WithMetrics(r Recorder) Option {
	return func(g *Gateway) { g.metrics = r }
}

func WithLogger(l logging.Logger) Option {
	return func(g *Gateway) { g.log = l }
}

func New(baseURL string, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: 30 * time.Second},
		tokenSource: func() string { return "" },
		log:         logging.NewNop(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

type requestOptions struct {
	header         http.Header
	query          url.Values
	bearer         string
	bearerSet      bool
	skipUnauthHook bool
}

type RequestOption func(*requestOptions)

func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.header == nil {
			o.header = http.Header{}
		}
		o.header.Add(key, value)
	}
}

func WithQuery(q url.Values) RequestOption {
	return func(o *requestOptions) { o.query = q }
}

// WithBearer sends the given token instead of the token source's.
func WithBearer(token string) RequestOption {
	return func(o *requestOptions) {
		o.bearer = token
		o.bearerSet = true
	}
}

// WithoutUnauthorizedHandler lets the caller apply its own 401 policy. The
// failure is still published.
func WithoutUnauthorizedHandler() RequestOption {
	return func(o *requestOptions) { o.skipUnauthHook = true }
}

// Do sends one request. body may be nil, url.Values (form), RawBody or any
// JSON-encodable value. Non-2xx responses and transport failures return
// *Error.
func (g *Gateway) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	var ro requestOptions
	for _, o := range opts {
		o(&ro)
	}

	token := ro.bearer
	if !ro.bearerSet {
		token = g.tokenSource()
	}

	req, err := g.newRequest(ctx, method, path, body, ro)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			if canceled(ctx) {
				return nil, fmt.Errorf("%s %s: %w", method, path, ctx.Err())
			}
			return nil, g.fail(ctx, method, path, &Error{Err: err})
		}
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, g.transportFailure(ctx, method, path, start, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, g.transportFailure(ctx, method, path, start, err)
	}
	g.observe(method, strconv.Itoa(resp.StatusCode), start)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
	}

	detail := ParseDetail(data)
	e := &Error{
		Status:  resp.StatusCode,
		Detail:  detail,
		Message: Normalize(resp.StatusCode, detail, nil),
	}
	err = g.fail(ctx, method, path, e)

	if resp.StatusCode == http.StatusUnauthorized && !ro.skipUnauthHook && g.onUnauthorized != nil {
		g.onUnauthorized(token)
	}
	return nil, err
}

// Get decodes the JSON response into out (which may be nil).
func (g *Gateway) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return g.call(ctx, http.MethodGet, path, nil, out, opts...)
}

func (g *Gateway) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return g.call(ctx, http.MethodPost, path, body, out, opts...)
}

func (g *Gateway) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return g.call(ctx, http.MethodDelete, path, nil, out, opts...)
}

func (g *Gateway) call(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	resp, err := g.Do(ctx, method, path, body, opts...)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

func (g *Gateway) newRequest(ctx context.Context, method, path string, body any, ro requestOptions) (*http.Request, error) {
	u := g.baseURL + path
	if len(ro.query) > 0 {
		u += "?" + ro.query.Encode()
	}

	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case url.Values:
		reader = strings.NewReader(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	case RawBody:
		reader = b.Reader
		contentType = b.ContentType
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, vs := range ro.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

func (g *Gateway) transportFailure(ctx context.Context, method, path string, start time.Time, err error) error {
	if canceled(ctx) {
		g.observe(method, OutcomeCanceled, start)
		return fmt.Errorf("%s %s: %w", method, path, ctx.Err())
	}
	g.observe(method, OutcomeTransportError, start)
	return g.fail(ctx, method, path, &Error{Err: err})
}

// fail publishes the failure exactly once and logs it.
func (g *Gateway) fail(ctx context.Context, method, path string, e *Error) error {
	if e.Message == "" {
		e.Message = Normalize(e.Status, e.Detail, e.Err)
	}
	if g.errorSink != nil {
		g.errorSink(e.Message)
	}
	g.log.Warn(ctx, "request failed", "method", method, "path", path, "status", e.Status, "error", e.Message)
	return e
}

func (g *Gateway) observe(method, outcome string, start time.Time) {
	if g.metrics != nil {
		g.metrics.ObserveRequest(method, outcome, time.Since(start))
	}
}

func canceled(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}
