package repositories

import (
	"context"
	"time"
)

type CacheRepositoryInterface interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	// SetNX ставит ключ только если его нет. Используется планировщиком
	// как второй рубеж дедупликации уведомлений.
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	// Del снимает ключи, в том числе SETNX-ключ дедупликации после
	// сорвавшейся отправки уведомления.
	Del(ctx context.Context, keys ...string) error
}
