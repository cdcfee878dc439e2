package smtp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionLimiter(t *testing.T) {
	t.Run("超过并发上限后拒绝", func(t *testing.T) {
		limiter := NewConnectionLimiter(2, 100)

		assert.True(t, limiter.Acquire())
		assert.True(t, limiter.Acquire())
		assert.False(t, limiter.Acquire())
		assert.Equal(t, 2, limiter.Current())

		limiter.Release()
		assert.True(t, limiter.Acquire())
	})

	t.Run("超过速率上限后拒绝", func(t *testing.T) {
		limiter := NewConnectionLimiter(100, 1)

		assert.True(t, limiter.Acquire())
		assert.False(t, limiter.Acquire())
	})

	t.Run("空闲时Release不会减成负数", func(t *testing.T) {
		limiter := NewConnectionLimiter(1, 100)

		limiter.Release()
		assert.Equal(t, 0, limiter.Current())
	})
}
