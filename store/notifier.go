package store

import (
	"context"
	"errors"
)

const (
	StockStoreName          = "stock"
	RecommendationStoreName = "recommendation"
)

// ErrSuperseded is returned by an action whose response arrived after a newer
// action was issued on the same store. Its result is discarded.
var ErrSuperseded = errors.New("superseded by a newer action")

// Notifier is told about every state change of a store, e.g. to make a
// presentation layer re-render.
type Notifier interface {
	Notify(ctx context.Context, store string, snapshot any) error
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, any) error { return nil }

type NotifierFunc func(ctx context.Context, store string, snapshot any) error

func (f NotifierFunc) Notify(ctx context.Context, store string, snapshot any) error {
	return f(ctx, store, snapshot)
}
