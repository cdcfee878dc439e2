package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSessionSecret = "0123456789abcdef0123456789abcdef"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("CODEMAIL_AUTH_ADMIN_SECRET", "admin-secret")
	t.Setenv("CODEMAIL_SESSION_SECRET", testSessionSecret)
}

func TestLoad(t *testing.T) {
	t.Run("默认值", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, ":25", cfg.SMTP.BindAddr)
		assert.Equal(t, 100, cfg.SMTP.MaxConnections)
		assert.Equal(t, AuthModePassword, cfg.Auth.Mode)
		assert.True(t, cfg.PasswordRequired())
		assert.Equal(t, "codemail", cfg.Session.Issuer)
		assert.Equal(t, 15*time.Minute, cfg.Session.Expiry)
		assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
		assert.Empty(t, cfg.Database.Type)
		assert.Empty(t, cfg.Redis.Address)
		assert.Empty(t, cfg.Mail.DisplayDomain)
	})

	t.Run("环境变量覆盖默认值", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("CODEMAIL_SERVER_PORT", "9090")
		t.Setenv("CODEMAIL_AUTH_MODE", "open")
		t.Setenv("CODEMAIL_MAIL_DISPLAY_DOMAIN", "Inbox.Example.COM")
		t.Setenv("CODEMAIL_DATABASE_TYPE", "mysql")
		t.Setenv("CODEMAIL_CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, AuthModeOpen, cfg.Auth.Mode)
		assert.False(t, cfg.PasswordRequired())
		assert.Equal(t, "inbox.example.com", cfg.Mail.DisplayDomain)
		assert.Equal(t, "mysql", cfg.Database.Type)
		assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
	})

	t.Run("缺少管理员口令时报错", func(t *testing.T) {
		viper.Reset()
		t.Cleanup(viper.Reset)
		t.Setenv("CODEMAIL_SESSION_SECRET", testSessionSecret)

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("会话密钥过短时报错", func(t *testing.T) {
		viper.Reset()
		t.Cleanup(viper.Reset)
		t.Setenv("CODEMAIL_AUTH_ADMIN_SECRET", "admin-secret")
		t.Setenv("CODEMAIL_SESSION_SECRET", "short")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("非法认证模式时报错", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("CODEMAIL_AUTH_MODE", "whatever")

		_, err := Load()
		assert.Error(t, err)
	})
}
