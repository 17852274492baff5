package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/flock-suite/flock-sdk/pkg/constants"
)

var (
	ErrNoAccessContext = errors.New("no access context found in context")
	ErrNoLogger        = errors.New("logger not found")
)

// Access identifies the acting principal for the current request. It is
// resolved once at the request boundary and carried through the context so
// repositories and the row-filter installer see the same identity.
type Access struct {
	TenantID    uuid.UUID
	UserID      uuid.UUID
	Permissions []string
}

func WithAccess(ctx context.Context, access *Access) context.Context {
	return context.WithValue(ctx, constants.AccessKey, access)
}

func UseAccess(ctx context.Context) (*Access, error) {
	access, ok := ctx.Value(constants.AccessKey).(*Access)
	if !ok || access == nil {
		return nil, ErrNoAccessContext
	}
	return access, nil
}

func UseTenantID(ctx context.Context) (uuid.UUID, error) {
	access, err := UseAccess(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if access.TenantID == uuid.Nil {
		return uuid.Nil, ErrNoAccessContext
	}
	return access.TenantID, nil
}

func UseUserID(ctx context.Context) (uuid.UUID, error) {
	access, err := UseAccess(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	return access.UserID, nil
}

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

// UseLogger returns the logger from the context, falling back to the
// standard logger so call sites never have to nil-check.
func UseLogger(ctx context.Context) *logrus.Entry {
	logger, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry)
	if !ok {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return logger
}
