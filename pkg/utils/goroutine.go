package utils

import (
	"go.uber.org/zap"
)

// GoSafe runs fn in a goroutine and recovers from any panic so it cannot take the process down.
// Panics are reported through the global zap logger.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				zap.L().Error("Recovered from panic in goroutine", zap.Any("panic", r), zap.Stack("stack"))
			}
		}()
		fn()
	}()
}

// ToPointer returns a pointer to v.
func ToPointer[T any](v T) *T {
	return &v
}
