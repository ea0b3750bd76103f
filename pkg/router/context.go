package router

import (
	"context"
	"net/http"
)

type (
	requestKey  struct{}
	responseKey struct{}
	errorKey    struct{}
)

// requestContext is cancelled with the request, but it also carries the
// values of the base context of the router.
type requestContext struct {
	context.Context
	base context.Context
}

func (ctx requestContext) Value(key any) any {
	if v := ctx.Context.Value(key); v != nil {
		return v
	}

	return ctx.base.Value(key)
}

func newRequestContext(base context.Context, r *http.Request) context.Context {
	ctx := context.Context(requestContext{Context: r.Context(), base: base})
	return context.WithValue(ctx, requestKey{}, r)
}

// Request returns the http request being served, it is nil outside of a
// handler.
func Request(ctx context.Context) *http.Request {
	r, _ := ctx.Value(requestKey{}).(*http.Request)
	return r
}

// Error returns the error of the handler or a middleware. It is only set when
// closers run.
func Error(ctx context.Context) error {
	err, _ := ctx.Value(errorKey{}).(error)
	return err
}

func Response(ctx context.Context) any {
	return ctx.Value(responseKey{})
}
