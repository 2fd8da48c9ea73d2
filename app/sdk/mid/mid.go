// Package mid provides app level middleware support.
package mid

import (
	"context"
	"errors"

	"github.com/jcpaschoal/confmgmt/app/sdk/auth"
	"github.com/jcpaschoal/confmgmt/business/sdk/web"
)

func checkIsError(e web.Encoder) error {
	err, hasError := e.(error)
	if hasError {
		return err
	}

	return nil
}

// =============================================================================

type ctxKey int

const (
	callerKey ctxKey = iota + 1
)

func setCaller(ctx context.Context, caller auth.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// GetCaller returns the authenticated caller from the context.
func GetCaller(ctx context.Context) (auth.Caller, error) {
	v, ok := ctx.Value(callerKey).(auth.Caller)
	if !ok {
		return auth.Caller{}, errors.New("caller not found in context")
	}

	return v, nil
}
