package domain

import (
	"context"
	"errors"

	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/pkg/dbutil"
	"github.com/jelajah-lab/backend/pkg/errorx"
	"github.com/jelajah-lab/backend/pkg/xcontext"
)

func checkPagination(ctx context.Context, offset, limit *int) error {
	apiCfg := xcontext.Configs(ctx).ApiServer
	if *limit == 0 {
		*limit = apiCfg.DefaultLimit
	}

	if *limit < 0 {
		return errorx.New(errorx.BadRequest, "Limit must be positive")
	}

	if *limit > apiCfg.MaxLimit {
		return errorx.New(errorx.BadRequest, "Exceed the maximum of limit (%d)", apiCfg.MaxLimit)
	}

	if *offset < 0 {
		return errorx.New(errorx.BadRequest, "Offset must not be negative")
	}

	return nil
}

func requireUser(ctx context.Context) (string, error) {
	userID := xcontext.RequestUserID(ctx)
	if userID == "" {
		return "", errorx.New(errorx.Unauthenticated, "Require an authenticated user")
	}

	return userID, nil
}

func requireAdmin(ctx context.Context) error {
	if _, err := requireUser(ctx); err != nil {
		return err
	}

	if xcontext.RequestUserRole(ctx) != string(entity.RoleAdmin) {
		return errorx.New(errorx.PermissionDenied, "Only admin can do this action")
	}

	return nil
}

// toClientError converts an error returned by a transaction to an errorx
// value. Errors which are already errorx values are returned as is.
func toClientError(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}

	var errx errorx.Error
	if errors.As(err, &errx) {
		return errx
	}

	if errors.Is(err, dbutil.ErrConflict) {
		xcontext.Logger(ctx).Warnf("%s: %v", msg, err)
		return errorx.New(errorx.Conflict, "Too many concurrent requests, please retry")
	}

	xcontext.Logger(ctx).Errorf("%s: %v", msg, err)
	return errorx.Unknown
}
