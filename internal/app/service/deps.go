package service

import (
	"context"
)

// Locker serializes work on a key across API instances.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// TokenCache keeps resolved principals keyed by auth token. It may be nil.
type TokenCache interface {
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}

// Pusher delivers live events to a user's open websocket connections.
type Pusher interface {
	SendToUser(userID uint, eventType string, payload interface{})
}

type noopPusher struct{}

func (noopPusher) SendToUser(uint, string, interface{}) {}
