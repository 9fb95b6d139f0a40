package core

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("key not found")

// Keys of the client state kept in local storage.
const (
	TokenKey = "baerhub-token"
	UserKey  = "baerhub-user"
	ThemeKey = "baerhub-theme"
)

type MetricsServer interface{}

// Storage is the client's local key-value store. Get returns ErrKeyNotFound for missing keys.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
