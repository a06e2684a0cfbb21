package execution

import (
	"context"
	"reflect"
)

var TokenKey = KeyOf[*Token]()

// WithToken returns ctx carrying the token.
func WithToken(ctx context.Context, token *Token) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}

// TokenFrom returns the token carried by ctx or nil.
func TokenFrom(ctx context.Context) *Token {
	return ContextValue[*Token](ctx)
}

// ContextValue returns the value of the provided type from the context
func ContextValue[T any](ctx context.Context) T {
	key := KeyOf[T]()
	if value, ok := ctx.Value(key).(T); ok {
		return value
	}
	var t T
	return t
}

// KeyOf returns the reflect.Type of the provided type
func KeyOf[T any]() reflect.Type {
	var a T
	return reflect.TypeOf(a)
}
