package middleware

import (
	"context"

	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/pkg/errorx"
	"github.com/jelajah-lab/backend/pkg/router"
	"github.com/jelajah-lab/backend/pkg/xcontext"
)

// OnlyAdmin must run after the auth verifier.
func OnlyAdmin() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		if xcontext.RequestUserRole(ctx) != string(entity.RoleAdmin) {
			return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
		}

		return nil, nil
	}
}
