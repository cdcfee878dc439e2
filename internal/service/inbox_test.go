package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codemail/backend/internal/domain"
	"codemail/backend/internal/storage/memory"
)

func TestInboxService_ListEmails(t *testing.T) {
	store := memory.NewStore()
	inbox := NewInboxService(store)
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	t.Run("未知编码返回空切片", func(t *testing.T) {
		emails, err := inbox.ListEmails("unknown-cloud-100")

		require.NoError(t, err)
		assert.NotNil(t, emails)
		assert.Empty(t, emails)
	})

	t.Run("按接收时间倒序返回", func(t *testing.T) {
		for i, id := range []string{"first", "second", "third"} {
			require.NoError(t, store.SaveEmail(&domain.Email{
				ID:          id,
				MailboxCode: "clever-fox-123",
				FromAddress: "sender@example.com",
				ReceivedAt:  base.Add(time.Duration(i) * time.Minute),
			}))
		}

		emails, err := inbox.ListEmails("clever-fox-123")

		require.NoError(t, err)
		require.Len(t, emails, 3)
		assert.Equal(t, "third", emails[0].ID)
		assert.Equal(t, "second", emails[1].ID)
		assert.Equal(t, "first", emails[2].ID)
	})

	t.Run("不同编码的邮件互不可见", func(t *testing.T) {
		require.NoError(t, store.SaveEmail(&domain.Email{
			ID:          "other",
			MailboxCode: "wise-moon-900",
			ReceivedAt:  base,
		}))

		emails, err := inbox.ListEmails("clever-fox-123")
		require.NoError(t, err)
		assert.Len(t, emails, 3)
	})
}
