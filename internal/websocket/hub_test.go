package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"codemail/backend/internal/auth/session"
	"codemail/backend/internal/domain"
)

func newRunningHub(t *testing.T, sessions *session.Manager) *Hub {
	t.Helper()
	hub := NewHub(nil, sessions, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func newTestClient(hub *Hub, code string) *Client {
	return &Client{
		ID:          "test-client-" + code,
		MailboxCode: code,
		subscribed:  make(map[string]bool),
		send:        make(chan []byte, 8),
		hub:         hub,
		log:         zap.NewNop(),
	}
}

func receiveMessage(t *testing.T, client *Client) *Message {
	t.Helper()
	select {
	case data := <-client.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestHub_NotifyNewMail(t *testing.T) {
	hub := newRunningHub(t, nil)

	client := newTestClient(hub, "swift-fox-123")
	hub.register <- client
	client.subscribeMailbox("swift-fox-123")

	// 订阅确认
	msg := receiveMessage(t, client)
	require.Equal(t, MessageTypeSubscribed, msg.Type)

	hub.NotifyNewMail("swift-fox-123", &domain.Email{
		ID:          "email-1",
		MailboxCode: "swift-fox-123",
		FromAddress: "sender@example.com",
		Subject:     "hello",
		BodyText:    "body",
		ReceivedAt:  time.Now().UTC(),
	})

	msg = receiveMessage(t, client)
	assert.Equal(t, MessageTypeNewMail, msg.Type)
	assert.Equal(t, "swift-fox-123", msg.MailboxCode)

	var data NewMailData
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Equal(t, "email-1", data.ID)
	assert.Equal(t, "sender@example.com", data.From)
	assert.True(t, data.HasText)
	assert.False(t, data.HasHTML)
}

func TestHub_PreviewTruncatesOnRuneBoundary(t *testing.T) {
	hub := newRunningHub(t, nil)

	client := newTestClient(hub, "swift-fox-123")
	hub.register <- client
	client.subscribeMailbox("swift-fox-123")
	msg := receiveMessage(t, client)
	require.Equal(t, MessageTypeSubscribed, msg.Type)

	body := strings.Repeat("你好，世界。", 40)
	hub.NotifyNewMail("swift-fox-123", &domain.Email{
		ID:          "email-2",
		MailboxCode: "swift-fox-123",
		BodyText:    body,
		ReceivedAt:  time.Now().UTC(),
	})

	msg = receiveMessage(t, client)
	var data NewMailData
	require.NoError(t, json.Unmarshal(msg.Data, &data))

	assert.True(t, utf8.ValidString(data.Preview))
	assert.Equal(t, previewRunes, utf8.RuneCountInString(data.Preview))
	assert.True(t, strings.HasPrefix(body, data.Preview))
}

func TestHub_BroadcastWhileResubscribing(t *testing.T) {
	hub := newRunningHub(t, nil)

	client := newTestClient(hub, "swift-fox-123")
	hub.register <- client
	client.subscribeMailbox("swift-fox-123")
	msg := receiveMessage(t, client)
	require.Equal(t, MessageTypeSubscribed, msg.Type)

	// 订阅表被读协程并发改写时广播不能崩溃
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			client.unsubscribeMailbox("swift-fox-123")
			client.subscribeMailbox("swift-fox-123")
		}
	}()

	email := &domain.Email{ID: "email-3", MailboxCode: "swift-fox-123", BodyText: "body"}
	for i := 0; i < 200; i++ {
		hub.NotifyNewMail("swift-fox-123", email)
	}
	<-done

	// 通道会被确认和通知消息灌满，排空即可
	for {
		select {
		case <-client.send:
		case <-time.After(100 * time.Millisecond):
			return
		}
	}
}

func TestClient_SubscribeDeniedForOtherCode(t *testing.T) {
	hub := newRunningHub(t, nil)

	client := newTestClient(hub, "swift-fox-123")
	hub.register <- client
	client.subscribeMailbox("wise-moon-900")

	msg := receiveMessage(t, client)
	assert.Equal(t, MessageTypeError, msg.Type)
}

func TestHub_AuthenticateClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := session.NewManager("0123456789abcdef0123456789abcdef", "codemail", 15*time.Minute)
	hub := NewHub(nil, sessions, nil)

	t.Run("有效令牌绑定编码", func(t *testing.T) {
		token, err := sessions.Issue("swift-fox-123")
		require.NoError(t, err)

		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/ws?token="+token, nil)

		client, err := hub.authenticateClient(c)
		require.NoError(t, err)
		assert.Equal(t, "swift-fox-123", client.MailboxCode)
	})

	t.Run("缺少令牌被拒绝", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/ws", nil)

		_, err := hub.authenticateClient(c)
		assert.Error(t, err)
	})

	t.Run("Bearer头也可以携带令牌", func(t *testing.T) {
		token, err := sessions.Issue("wise-moon-900")
		require.NoError(t, err)

		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/ws", nil)
		c.Request.Header.Set("Authorization", "Bearer "+token)

		client, err := hub.authenticateClient(c)
		require.NoError(t, err)
		assert.Equal(t, "wise-moon-900", client.MailboxCode)
	})
}
