// Package httpmw assembles the default HTTP middleware chain.
package httpmw

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/deepworx/coffeeshop/pkg/httpmw/deadline"
	"github.com/deepworx/coffeeshop/pkg/httpmw/logging"
	"github.com/deepworx/coffeeshop/pkg/httpmw/recovery"
	"github.com/deepworx/coffeeshop/pkg/httpmw/requestid"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Options configures the middleware chain.
type Options struct {
	deadlineCfg  *deadline.Config
	requestIDCfg *requestid.Config
	operation    string
}

// Option configures the chain builder.
type Option func(*Options)

// WithDeadline overrides the default deadline configuration.
func WithDeadline(cfg deadline.Config) Option {
	return func(o *Options) {
		o.deadlineCfg = &cfg
	}
}

// WithRequestID overrides the default request ID configuration.
func WithRequestID(cfg requestid.Config) Option {
	return func(o *Options) {
		o.requestIDCfg = &cfg
	}
}

// WithOperation sets the span name used for server spans.
func WithOperation(name string) Option {
	return func(o *Options) {
		o.operation = name
	}
}

// BuildDefault returns middleware in outermost-first order:
// otel, recovery, requestid, logging, deadline.
func BuildDefault(opts ...Option) []Middleware {
	o := &Options{operation: "http.server"}
	for _, opt := range opts {
		opt(o)
	}

	deadlineCfg := deadline.DefaultConfig()
	if o.deadlineCfg != nil {
		deadlineCfg = *o.deadlineCfg
	}
	requestIDCfg := requestid.DefaultConfig()
	if o.requestIDCfg != nil {
		requestIDCfg = *o.requestIDCfg
	}

	operation := o.operation
	return []Middleware{
		// Span covers everything below, including auth.
		func(next http.Handler) http.Handler {
			return otelhttp.NewHandler(next, operation)
		},
		recovery.New(),
		requestid.New(requestIDCfg),
		logging.New(),
		deadline.New(deadlineCfg),
	}
}

// Chain applies mws to h so that mws[0] runs first.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
