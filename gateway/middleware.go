package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// RoundFunc executes one outbound call.
type RoundFunc func(ctx context.Context, req *Request) (*Response, error)

// Middleware wraps a RoundFunc, adding cross-cutting behaviour without
// changing the signature.
type Middleware func(next RoundFunc) RoundFunc

// Chain composes middlewares left-to-right: the first middleware in the
// slice is the outermost wrapper (executed first on the request path).
func Chain(mws ...Middleware) Middleware {
	return func(next RoundFunc) RoundFunc {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// busySignal maintains the busy counter around signaling requests. Policy:
// every non-GET signals; a GET signals only when SignalBusy is set, so a
// 15-second background poll never flashes the global loader. The decrement
// is deferred — it fires on success, failure, and panic alike.
func (g *Gateway) busySignal(next RoundFunc) RoundFunc {
	return func(ctx context.Context, req *Request) (*Response, error) {
		if req.Method != http.MethodGet || req.SignalBusy {
			g.hub.BusyBegin()
			defer g.hub.BusyEnd()
		}
		return next(ctx, req)
	}
}

// measure records request duration and failure counters when a recorder is
// configured.
func (g *Gateway) measure(next RoundFunc) RoundFunc {
	return func(ctx context.Context, req *Request) (*Response, error) {
		if g.recorder == nil {
			return next(ctx, req)
		}
		start := time.Now()
		resp, err := next(ctx, req)
		g.recorder.RecordSimple("gateway.request.duration_ms",
			float64(time.Since(start).Milliseconds()), "milliseconds")
		if err != nil {
			g.recorder.RecordSimple("gateway.request.error", 1, "count")
		}
		return resp, err
	}
}

// classify turns received HTTP failure statuses into *APIError and surfaces
// the server's message via the notifier. Status 401 suppresses the
// notification — the session layer owns redirect-on-401 semantics and must
// not be double-notified — but the error still propagates. Successful
// responses are decoded into the envelope here.
func (g *Gateway) classify(next RoundFunc) RoundFunc {
	return func(ctx context.Context, req *Request) (*Response, error) {
		resp, err := next(ctx, req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			var env Envelope
			_ = json.Unmarshal(resp.raw, &env)
			msg := env.Message
			if msg == "" {
				msg = genericErrorMessage
			}
			if resp.StatusCode != http.StatusUnauthorized && g.notifier != nil {
				g.notifier.Error(msg)
			}
			g.logger.Warn("gateway: application failure",
				"method", req.Method,
				"path", req.Path,
				"status", resp.StatusCode,
				"message", msg)
			return nil, &APIError{Status: resp.StatusCode, Message: msg, ErrorCode: env.ErrorCode}
		}

		if !resp.decoded {
			if err := json.Unmarshal(resp.raw, &resp.Envelope); err != nil {
				return nil, &DecodeError{Path: req.Path, Cause: err}
			}
			resp.decoded = true
		}
		return resp, nil
	}
}

// substitute recovers transport-level failures from the offline store. Only
// reads are substitutable, and only when the request path matches a
// registered fragment; the first hit per session raises the degraded-mode
// flag. Context cancellation is not substituted — the caller gave up, the
// backend did not fail.
func (g *Gateway) substitute(next RoundFunc) RoundFunc {
	return func(ctx context.Context, req *Request) (*Response, error) {
		resp, err := next(ctx, req)
		if err == nil {
			return resp, nil
		}

		if ctx.Err() != nil {
			return nil, &UnreachableError{Path: req.Path, Cause: err}
		}

		if req.Method == http.MethodGet && g.store != nil {
			if payload, fragment, ok := g.store.Lookup(req.Path); ok {
				g.logger.Warn("gateway: serving offline fixture",
					"path", req.Path,
					"fragment", fragment)
				g.hub.EnterDegraded(req.Path)
				if g.recorder != nil {
					g.recorder.RecordSimple("gateway.offline.substitution", 1, "count")
				}
				return &Response{
					StatusCode: http.StatusOK,
					Envelope: Envelope{
						Success: true,
						Data:    payload,
						Message: "served from offline fixtures",
					},
					Offline: true,
					decoded: true,
				}, nil
			}
		}

		g.logger.Error("gateway: backend unreachable",
			"method", req.Method,
			"path", req.Path,
			"error", err)
		if g.notifier != nil {
			g.notifier.Error(unreachableMessage)
		}
		return nil, &UnreachableError{Path: req.Path, Cause: err}
	}
}
