package middleware

import (
	"context"
	"strings"

	"github.com/jelajah-lab/backend/internal/model"
	"github.com/jelajah-lab/backend/pkg/errorx"
	"github.com/jelajah-lab/backend/pkg/router"
	"github.com/jelajah-lab/backend/pkg/token"
	"github.com/jelajah-lab/backend/pkg/xcontext"
)

type AuthVerifier struct {
	engine token.Engine[model.AccessToken]
}

func NewAuthVerifier(engine token.Engine[model.AccessToken]) *AuthVerifier {
	return &AuthVerifier{engine: engine}
}

// Middleware requires a valid access token in the Authorization header and
// stores the user id and role in the request context.
func (a *AuthVerifier) Middleware() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		auth, tkn, found := strings.Cut(router.Request(ctx).Header.Get("Authorization"), " ")
		if !found || auth != "Bearer" || tkn == "" {
			return nil, errorx.New(errorx.Unauthenticated, "You need to authenticate before")
		}

		info, err := a.engine.Verify(tkn)
		if err != nil {
			xcontext.Logger(ctx).Debugf("Invalid access token: %v", err)
			return nil, errorx.New(errorx.Unauthenticated, "Invalid access token")
		}

		if info.ID == "" {
			return nil, errorx.New(errorx.Unauthenticated, "Invalid access token")
		}

		ctx = xcontext.WithRequestUserID(ctx, info.ID)
		ctx = xcontext.WithRequestUserRole(ctx, info.Role)
		return ctx, nil
	}
}
