package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/jelajah-lab/backend/pkg/errorx"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"github.com/mitchellh/mapstructure"
)

func wrapHandler[Request, Response any](
	router *Router,
	method string,
	handler HandlerFunc[Request, Response],
) http.HandlerFunc {
	befores := router.befores
	closers := router.closers

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := newRequestContext(router.ctx, r)

		resp, err := func() (*Response, error) {
			if r.Method != method {
				return nil, errorx.New(errorx.BadRequest, "Method %s is not allowed", r.Method)
			}

			var req Request
			if err := bind(r, method, &req); err != nil {
				xcontext.Logger(ctx).Debugf("Cannot bind request: %v", err)
				return nil, errorx.New(errorx.BadRequest, "Invalid request")
			}

			for _, before := range befores {
				newCtx, err := before(ctx)
				if err != nil {
					return nil, err
				}

				if newCtx != nil {
					ctx = newCtx
				}
			}

			return handler(ctx, &req)
		}()

		if err != nil {
			ctx = context.WithValue(ctx, errorKey{}, err)
			writeError(ctx, w, err)
		} else {
			ctx = context.WithValue(ctx, responseKey{}, resp)
			if err := writeJSON(w, http.StatusOK, newResponse(resp)); err != nil {
				xcontext.Logger(ctx).Errorf("Cannot write the response: %v", err)
			}
		}

		for _, closer := range closers {
			closer(ctx)
		}
	}
}

func bind(r *http.Request, method string, req any) error {
	switch method {
	case http.MethodGet:
		return bindQuery(r.URL.Query(), req)
	case http.MethodPost:
		err := json.NewDecoder(r.Body).Decode(req)
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	default:
		return errors.New("unsupported method")
	}
}

func bindQuery(query url.Values, req any) error {
	input := map[string]any{}
	for key, values := range query {
		if len(values) == 1 {
			input[key] = values[0]
		} else {
			input[key] = values
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           req,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}
