package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"codemail/backend/internal/auth/session"
	"codemail/backend/internal/domain"
	"codemail/backend/internal/monitoring"
)

// upgraderFactory 创建带有 Origin 验证的 WebSocket 升级器
func upgraderFactory(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			for _, origin := range allowedOrigins {
				if origin == "*" {
					return true
				}
			}

			requestOrigin := r.Header.Get("Origin")
			if requestOrigin == "" {
				// 没有 Origin 视为同源请求
				return true
			}

			for _, origin := range allowedOrigins {
				if requestOrigin == origin {
					return true
				}
			}

			return false
		},
	}
}

// MessageType 定义WebSocket消息类型
type MessageType string

const (
	MessageTypeNewMail     MessageType = "new_mail"
	MessageTypePing        MessageType = "ping"
	MessageTypePong        MessageType = "pong"
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	MessageTypeSubscribed  MessageType = "subscribed"
	MessageTypeError       MessageType = "error"
)

// Message 定义WebSocket消息结构
type Message struct {
	Type        MessageType     `json:"type"`
	MailboxCode string          `json:"mailboxCode,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	Error       string          `json:"error,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Client 代表一个WebSocket客户端连接
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
	log  *zap.Logger

	// MailboxCode 会话令牌绑定的邮箱编码，客户端只能订阅它
	MailboxCode string

	subscribed map[string]bool
	mu         sync.RWMutex
}

// Hub 管理所有WebSocket连接
type Hub struct {
	clients    map[string]*Client            // clientID -> Client
	mailboxes  map[string]map[string]*Client // mailboxCode -> clientID -> Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	mu         sync.RWMutex
	log        *zap.Logger

	allowedOrigins []string
	sessions       *session.Manager
	metrics        *monitoring.Metrics // 可选
}

// BroadcastMessage 广播消息
type BroadcastMessage struct {
	MailboxCode string
	Message     *Message
}

// NewHub 创建WebSocket Hub
//
// 参数:
//   - allowedOrigins: 允许的 Origin 列表，用于 WebSocket 连接验证
//   - sessions: 会话令牌管理器，用于验证客户端身份
//   - log: 日志器，可以为 nil
func NewHub(allowedOrigins []string, sessions *session.Manager, log *zap.Logger) *Hub {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Hub{
		clients:        make(map[string]*Client),
		mailboxes:      make(map[string]map[string]*Client),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		broadcast:      make(chan *BroadcastMessage, 256),
		log:            log,
		allowedOrigins: allowedOrigins,
		sessions:       sessions,
	}
}

// WithMetrics 启用连接数指标上报
func (h *Hub) WithMetrics(metrics *monitoring.Metrics) *Hub {
	h.metrics = metrics
	return h
}

// Run 启动Hub
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info("websocket hub stopped")
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			if h.metrics != nil {
				h.metrics.WebSocketClients.Inc()
			}
			h.log.Info("client registered",
				zap.String("id", client.ID),
				zap.String("code", client.MailboxCode))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				for code := range client.subscribed {
					if clients, exists := h.mailboxes[code]; exists {
						delete(clients, client.ID)
						if len(clients) == 0 {
							delete(h.mailboxes, code)
						}
					}
				}
				delete(h.clients, client.ID)
				close(client.send)
				if h.metrics != nil {
					h.metrics.WebSocketClients.Dec()
				}
				h.log.Info("client unregistered", zap.String("id", client.ID))
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.broadcastToMailbox(msg.MailboxCode, msg.Message)

		case <-ticker.C:
			h.pingAllClients()
		}
	}
}

// NewMailData 新邮件通知数据
type NewMailData struct {
	ID          string `json:"id"`
	MailboxCode string `json:"mailboxCode"`
	From        string `json:"from"`
	Subject     string `json:"subject"`
	Preview     string `json:"preview,omitempty"`
	HasHTML     bool   `json:"hasHtml"`
	HasText     bool   `json:"hasText"`
	ReceivedAt  string `json:"receivedAt"`
}

// previewRunes 新邮件推送里正文摘要的最大字符数
const previewRunes = 100

// NotifyNewMail 通知编码下的订阅者有新邮件
func (h *Hub) NotifyNewMail(code string, email *domain.Email) {
	// 按字符截断，避免把多字节字符切成非法 UTF-8
	preview := email.BodyText
	if runes := []rune(preview); len(runes) > previewRunes {
		preview = string(runes[:previewRunes])
	}

	newMailData := NewMailData{
		ID:          email.ID,
		MailboxCode: code,
		From:        email.FromAddress,
		Subject:     email.Subject,
		Preview:     preview,
		HasHTML:     email.BodyHTML != "",
		HasText:     email.BodyText != "",
		ReceivedAt:  email.ReceivedAt.Format(time.RFC3339),
	}

	data, err := json.Marshal(newMailData)
	if err != nil {
		h.log.Error("failed to marshal new mail data", zap.Error(err))
		return
	}

	msg := &Message{
		Type:        MessageTypeNewMail,
		MailboxCode: code,
		Data:        data,
		Timestamp:   time.Now(),
	}

	h.broadcast <- &BroadcastMessage{
		MailboxCode: code,
		Message:     msg,
	}
}

// broadcastToMailbox 向订阅特定编码的客户端广播消息
func (h *Hub) broadcastToMailbox(code string, msg *Message) {
	// 订阅表会被各客户端的读协程并发修改，迭代前先拷贝快照
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.mailboxes[code]))
	for _, client := range h.mailboxes[code] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("failed to marshal message", zap.Error(err))
		return
	}

	for _, client := range clients {
		select {
		case client.send <- data:
		default:
			// 客户端阻塞，跳过
			h.log.Warn("client channel blocked, skipping", zap.String("clientID", client.ID))
		}
	}
}

// pingAllClients 向所有客户端发送ping
func (h *Hub) pingAllClients() {
	msg := &Message{
		Type:      MessageTypePing,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.send <- data:
		default:
			// 跳过阻塞的客户端
		}
	}
}

// closeAllClients 关闭所有客户端连接
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[string]*Client)
	h.mailboxes = make(map[string]map[string]*Client)
}

// authenticateClient 认证客户端。
// 令牌从 token 参数或 Authorization 头获取，必须是有效的会话令牌。
func (h *Hub) authenticateClient(c *gin.Context) (*Client, error) {
	token := c.Query("token")
	if token == "" {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}
	}

	if token == "" {
		return nil, errors.New("missing authentication token")
	}

	claims, err := h.sessions.Validate(token)
	if err != nil {
		return nil, err
	}

	return &Client{
		ID:          uuid.NewString(),
		MailboxCode: claims.MailboxCode,
		subscribed:  make(map[string]bool),
		log:         h.log,
	}, nil
}

// HandleWebSocket 处理WebSocket连接
func HandleWebSocket(hub *Hub) gin.HandlerFunc {
	upgrader := upgraderFactory(hub.allowedOrigins)

	return func(c *gin.Context) {
		client, err := hub.authenticateClient(c)
		if err != nil {
			hub.log.Warn("websocket authentication failed",
				zap.Error(err),
				zap.String("remote_addr", c.ClientIP()))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.log.Error("failed to upgrade connection",
				zap.Error(err),
				zap.String("origin", c.Request.Header.Get("Origin")),
				zap.String("remote_addr", c.ClientIP()))
			return
		}

		client.conn = conn
		client.hub = hub
		client.send = make(chan []byte, 256)

		hub.register <- client

		go client.writePump()
		go client.readPump()
	}
}

// readPump 处理客户端消息
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Error("websocket error", zap.Error(err))
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump 发送消息给客户端
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			c.conn.WriteMessage(websocket.TextMessage, message)

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage 处理接收到的消息
func (c *Client) handleMessage(msg *Message) {
	switch msg.Type {
	case MessageTypeSubscribe:
		c.subscribeMailbox(msg.MailboxCode)
	case MessageTypeUnsubscribe:
		c.unsubscribeMailbox(msg.MailboxCode)
	case MessageTypePong:
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	default:
		c.log.Warn("unknown message type", zap.String("type", string(msg.Type)))
	}
}

// subscribeMailbox 订阅编码。只允许订阅会话令牌绑定的编码。
func (c *Client) subscribeMailbox(code string) {
	if code == "" {
		c.sendError("mailbox code is required")
		return
	}

	if code != c.MailboxCode {
		c.log.Warn("subscription denied: no permission",
			zap.String("clientID", c.ID),
			zap.String("code", code))
		c.sendError("no permission to access mailbox: " + code)
		return
	}

	c.mu.Lock()
	c.subscribed[code] = true
	c.mu.Unlock()

	c.hub.mu.Lock()
	if c.hub.mailboxes[code] == nil {
		c.hub.mailboxes[code] = make(map[string]*Client)
	}
	c.hub.mailboxes[code][c.ID] = c
	c.hub.mu.Unlock()

	c.log.Info("subscribed to mailbox",
		zap.String("clientID", c.ID),
		zap.String("code", code))

	c.sendMessage(&Message{
		Type:        MessageTypeSubscribed,
		MailboxCode: code,
		Timestamp:   time.Now(),
	})
}

// unsubscribeMailbox 取消订阅编码
func (c *Client) unsubscribeMailbox(code string) {
	c.mu.Lock()
	delete(c.subscribed, code)
	c.mu.Unlock()

	c.hub.mu.Lock()
	if clients, exists := c.hub.mailboxes[code]; exists {
		delete(clients, c.ID)
		if len(clients) == 0 {
			delete(c.hub.mailboxes, code)
		}
	}
	c.hub.mu.Unlock()

	c.log.Info("unsubscribed from mailbox",
		zap.String("clientID", c.ID),
		zap.String("code", code))
}

// sendError 发送错误消息给客户端
func (c *Client) sendError(errMsg string) {
	c.sendMessage(&Message{
		Type:      MessageTypeError,
		Error:     errMsg,
		Timestamp: time.Now(),
	})
}

// sendMessage 发送消息给客户端
func (c *Client) sendMessage(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("failed to marshal message", zap.Error(err))
		return
	}

	select {
	case c.send <- data:
	default:
		c.log.Warn("client channel blocked", zap.String("clientID", c.ID))
	}
}
