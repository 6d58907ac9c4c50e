// Package gateway is the single choke point for every call the console sync
// engine makes to the OrderNow backend. It owns the cross-cutting concerns no
// caller should re-implement: cookie-credentialed transport, busy-indicator
// signaling, error classification with user notifications, and graceful
// degradation to the offline substitution store when the backend cannot be
// reached at all.
//
//	hub := signals.NewHub()
//	center := notify.NewCenter()
//	gw, _ := gateway.New("http://localhost:3000",
//		gateway.WithHub(hub),
//		gateway.WithNotifier(center),
//		gateway.WithOfflineStore(offline.MustFixtures()))
//
//	var orders []console.Order
//	err := gw.Get(ctx, "/orders/restaurant", url.Values{"status": {"placed"}}, &orders)
//
// The gateway never retries. Callers that want retries own them; none of the
// console screens do.
package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/ordernow/consync/offline"
	"github.com/ordernow/consync/signals"
)

// apiPrefix is joined onto the configured origin; every backend route lives
// under it.
const apiPrefix = "/api"

// genericErrorMessage is shown when an application failure carries no usable
// message of its own.
const genericErrorMessage = "Something went wrong"

// unreachableMessage is shown when the backend is down and no offline
// substitution exists for the request path.
const unreachableMessage = "Network Error: Backend is unreachable."

// Envelope is the backend's uniform response wrapper.
type Envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message,omitempty"`
	ErrorCode string          `json:"error_code,omitempty"`
}

// Request describes one outbound call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any

	// SignalBusy opts a GET into the global loading indicator. Non-GET
	// requests always signal; background reads (polling) must not flash
	// the loader, so GETs default to silent.
	SignalBusy bool
}

// Response is the settled result of a call, offline substitutions included.
type Response struct {
	StatusCode int
	Envelope   Envelope
	// Offline is true when the payload came from the substitution store
	// rather than the backend.
	Offline bool

	raw     []byte
	decoded bool
}

// Notifier receives user-visible failure messages. *notify.Center satisfies it.
type Notifier interface {
	Error(message string)
}

// Recorder receives gateway metrics. *metrics.Manager satisfies it.
type Recorder interface {
	RecordSimple(name string, value float64, unit string)
}

// Gateway routes all console traffic to one backend origin.
type Gateway struct {
	http     *resty.Client
	hub      *signals.Hub
	notifier Notifier
	store    *offline.Store
	recorder Recorder
	logger   *slog.Logger
	round    RoundFunc
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHub sets the signals hub for busy/degraded signaling.
func WithHub(h *signals.Hub) Option {
	return func(g *Gateway) { g.hub = h }
}

// WithNotifier sets the sink for user-visible failure messages.
func WithNotifier(n Notifier) Option {
	return func(g *Gateway) { g.notifier = n }
}

// WithOfflineStore enables offline substitution for transport failures.
func WithOfflineStore(s *offline.Store) Option {
	return func(g *Gateway) { g.store = s }
}

// WithRecorder enables request metrics.
func WithRecorder(r Recorder) Option {
	return func(g *Gateway) { g.recorder = r }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithTimeout sets the transport timeout. Zero means the transport default.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.http.SetTimeout(d)
		}
	}
}

// New creates a Gateway for the given backend origin. The "/api" prefix is
// appended; session credentials travel in a cookie jar, matching the
// browser console's credentialed transport.
func New(origin string, opts ...Option) (*Gateway, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(origin, "/") + apiPrefix).
		SetHeader("Content-Type", "application/json").
		SetCookieJar(jar)

	g := &Gateway{
		http:   client,
		hub:    signals.NewHub(),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(g)
	}

	g.round = Chain(
		g.busySignal,
		g.measure,
		g.classify,
		g.substitute,
	)(g.transport)

	return g, nil
}

// Do executes one call through the full middleware chain.
func (g *Gateway) Do(ctx context.Context, req *Request) (*Response, error) {
	return g.round(ctx, req)
}

// Get issues a silent read (no busy indicator) and decodes the envelope's
// data member into out. Pass nil out to discard the payload.
func (g *Gateway) Get(ctx context.Context, path string, query url.Values, out any) error {
	return g.call(ctx, &Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// GetBusy is Get with the global loading indicator opted in.
func (g *Gateway) GetBusy(ctx context.Context, path string, query url.Values, out any) error {
	return g.call(ctx, &Request{Method: http.MethodGet, Path: path, Query: query, SignalBusy: true}, out)
}

// Post issues a JSON write.
func (g *Gateway) Post(ctx context.Context, path string, body, out any) error {
	return g.call(ctx, &Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put issues a JSON replacement write.
func (g *Gateway) Put(ctx context.Context, path string, body, out any) error {
	return g.call(ctx, &Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Patch issues a JSON partial write.
func (g *Gateway) Patch(ctx context.Context, path string, body, out any) error {
	return g.call(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

// Delete issues a delete.
func (g *Gateway) Delete(ctx context.Context, path string, out any) error {
	return g.call(ctx, &Request{Method: http.MethodDelete, Path: path}, out)
}

// Close releases transport resources.
func (g *Gateway) Close() error {
	return g.http.Close()
}

func (g *Gateway) call(ctx context.Context, req *Request, out any) error {
	resp, err := g.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Envelope.Data, out); err != nil {
		return &DecodeError{Path: req.Path, Cause: err}
	}
	return nil
}

// transport is the innermost round: the actual resty call. It returns an
// error only for transport-level failures; any received HTTP status, 4xx and
// 5xx included, comes back as a Response for the classify middleware.
func (g *Gateway) transport(ctx context.Context, req *Request) (*Response, error) {
	r := g.http.R().SetContext(ctx)
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	res, err := r.Execute(req.Method, req.Path)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: res.StatusCode(), raw: res.Bytes()}, nil
}
