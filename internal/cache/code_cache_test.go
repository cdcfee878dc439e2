package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCodeCache(t *testing.T) {
	t.Run("命中已标记的编码", func(t *testing.T) {
		c := NewCodeCache(10, time.Minute)

		assert.False(t, c.Contains("swift-fox-123"))
		c.Mark("swift-fox-123")
		assert.True(t, c.Contains("swift-fox-123"))
	})

	t.Run("过期条目不命中", func(t *testing.T) {
		c := NewCodeCache(10, 10*time.Millisecond)

		c.Mark("swift-fox-123")
		time.Sleep(30 * time.Millisecond)
		assert.False(t, c.Contains("swift-fox-123"))
	})

	t.Run("容量满后不再接收新条目", func(t *testing.T) {
		c := NewCodeCache(2, time.Minute)

		c.Mark("a")
		c.Mark("b")
		c.Mark("c")
		assert.True(t, c.Contains("a"))
		assert.True(t, c.Contains("b"))
		assert.False(t, c.Contains("c"))
	})

	t.Run("重复标记不占用额外容量", func(t *testing.T) {
		c := NewCodeCache(2, time.Minute)

		c.Mark("a")
		c.Mark("a")
		c.Mark("b")
		assert.True(t, c.Contains("b"))
	})
}
