package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashPassword(t *testing.T) {
	t.Run("摘要是小写十六进制的SHA-256", func(t *testing.T) {
		hash := HashPassword("111111")
		assert.Equal(t, "bcb15f821479b4d5772bd0ca866c00ad5f926e3580720659cc80d39c9d09802a", hash)
	})

	t.Run("同一口令摘要确定", func(t *testing.T) {
		assert.Equal(t, HashPassword("hunter2"), HashPassword("hunter2"))
	})

	t.Run("不同口令摘要不同", func(t *testing.T) {
		assert.NotEqual(t, HashPassword("hunter2"), HashPassword("hunter3"))
	})

	t.Run("摘要长度固定64字符", func(t *testing.T) {
		assert.Len(t, HashPassword(""), 64)
		assert.Len(t, HashPassword("一段比较长的中文口令用来验证多字节输入"), 64)
	})
}

func TestCheckPassword(t *testing.T) {
	hash := HashPassword("secret99")

	assert.True(t, CheckPassword("secret99", hash))
	assert.False(t, CheckPassword("secret98", hash))
	assert.False(t, CheckPassword("", hash))
	assert.False(t, CheckPassword("secret99", ""))
}
