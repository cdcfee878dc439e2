package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-session-secret-at-least-32-chars!!"

func TestManager_IssueAndValidate(t *testing.T) {
	manager := NewManager(testSecret, "codemail", 15*time.Minute)

	t.Run("签发的令牌可以通过验证", func(t *testing.T) {
		token, err := manager.Issue("swift-fox-123")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := manager.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "swift-fox-123", claims.MailboxCode)
		assert.Equal(t, "codemail", claims.Issuer)
		assert.Equal(t, "swift-fox-123", claims.Subject)
	})

	t.Run("过期令牌验证失败", func(t *testing.T) {
		expired := NewManager(testSecret, "codemail", -1*time.Minute)
		token, err := expired.Issue("swift-fox-123")
		require.NoError(t, err)

		_, err = manager.Validate(token)
		assert.Equal(t, ErrExpiredToken, err)
	})

	t.Run("篡改的令牌验证失败", func(t *testing.T) {
		token, err := manager.Issue("swift-fox-123")
		require.NoError(t, err)

		_, err = manager.Validate(token + "x")
		assert.Equal(t, ErrInvalidToken, err)
	})

	t.Run("其他密钥签发的令牌验证失败", func(t *testing.T) {
		other := NewManager("another-session-secret-32-chars-long!!!", "codemail", 15*time.Minute)
		token, err := other.Issue("swift-fox-123")
		require.NoError(t, err)

		_, err = manager.Validate(token)
		assert.Equal(t, ErrInvalidToken, err)
	})

	t.Run("空字符串验证失败", func(t *testing.T) {
		_, err := manager.Validate("")
		assert.Equal(t, ErrInvalidToken, err)
	})
}
