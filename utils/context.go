package utils

import (
	"context"
	"time"
)

const DefaultTimeout = 30 * time.Second

func NewContext() (ctx context.Context, cancel func()) {
	return context.WithTimeout(context.TODO(), DefaultTimeout)
}
