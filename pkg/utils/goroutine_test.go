package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestGoSafe_RecoversPanic(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	done := make(chan struct{})
	GoSafe(func() {
		defer close(done)
		panic("boom")
	})
	<-done

	assert.Eventually(t, func() bool { return logs.Len() == 1 }, time.Second, 10*time.Millisecond)
}

func TestToPointer(t *testing.T) {
	p := ToPointer(false)
	assert.NotNil(t, p)
	assert.False(t, *p)
}
