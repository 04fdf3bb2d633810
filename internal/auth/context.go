package auth

import (
	"context"
	"errors"
)

// Method records how the current request was authenticated.
type Method string

const (
	MethodToken      Method = "token"
	MethodServiceKey Method = "service_key"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxEmail
	ctxRole
	ctxMethod
)

func WithIdentity(ctx context.Context, userID, email, role string, method Method) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxEmail, email)
	ctx = context.WithValue(ctx, ctxRole, role)
	ctx = context.WithValue(ctx, ctxMethod, method)
	return ctx
}

func UserID(ctx context.Context) (string, error) {
	v := ctx.Value(ctxUserID)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("user_id not in context")
}

func Email(ctx context.Context) (string, error) {
	v := ctx.Value(ctxEmail)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("email not in context")
}

func Role(ctx context.Context) (string, error) {
	v := ctx.Value(ctxRole)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("role not in context")
}

// AuthMethod reports how the caller authenticated. Service-key callers
// have no user identity; handlers needing one must check this.
func AuthMethod(ctx context.Context) (Method, error) {
	v := ctx.Value(ctxMethod)
	if m, ok := v.(Method); ok && m != "" {
		return m, nil
	}
	return "", errors.New("auth method not in context")
}
