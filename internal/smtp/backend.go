package smtp

import (
	"io"
	"mime"
	"strings"

	gosmtp "github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"codemail/backend/internal/monitoring"
	"codemail/backend/internal/service"
)

// maxMessageBytes 单封邮件的最大体积
const maxMessageBytes = 10 << 20 // 10MB

// Backend 实现 go-smtp 的 Backend 接口。
//
// 【安全说明】
// 这是一个只接收邮件的 SMTP 服务器（Receiving-Only SMTP Server）。
// 特性：
// - ✅ 只接收邮件，不支持对外发送（无邮件中继功能）
// - ✅ 可选限定收件域名，拒绝发往其他域名的邮件
// - ✅ 收件人编码不要求已开通：邮件按编码落库，编码是弱引用
// - ❌ 不会成为垃圾邮件中继或开放中继
//
// 与常见实现不同，收件人不存在不会返回 550。
// 收件地址的本地部分直接作为邮箱编码入库，先收信后开通也能收到。
type Backend struct {
	ingest  *service.IngestService
	limiter *ConnectionLimiter
	metrics *monitoring.Metrics // 可选
	log     *zap.Logger

	// allowedDomain 为空时接收发往任意域名的邮件
	allowedDomain string
}

// NewBackend 创建 SMTP Backend。limiter 和 metrics 可以为 nil。
func NewBackend(
	ingest *service.IngestService,
	limiter *ConnectionLimiter,
	metrics *monitoring.Metrics,
	log *zap.Logger,
	allowedDomain string,
) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{
		ingest:        ingest,
		limiter:       limiter,
		metrics:       metrics,
		log:           log,
		allowedDomain: strings.ToLower(strings.TrimSpace(allowedDomain)),
	}
}

// NewSession 创建新的 SMTP 会话。
func (b *Backend) NewSession(c *gosmtp.Conn) (gosmtp.Session, error) {
	if b.limiter != nil && !b.limiter.Acquire() {
		return nil, &gosmtp.SMTPError{
			Code:         421,
			EnhancedCode: gosmtp.EnhancedCode{4, 4, 5},
			Message:      "too many connections, try again later",
		}
	}
	if b.metrics != nil {
		b.metrics.SMTPConnections.Inc()
	}
	return &session{
		backend: b,
	}, nil
}

type session struct {
	backend     *Backend
	fromAddress string
	recipients  []string
}

// Mail 处理 MAIL 命令。
func (s *session) Mail(from string, opts *gosmtp.MailOptions) error {
	s.fromAddress = normalizeAddress(from)
	return nil
}

// Rcpt 处理 RCPT 命令。
//
// 收件人编码不做存在性校验：编码是弱引用，邮件照常接收落库。
// 配置了收件域名时，发往其他域名的邮件返回 550 拒绝，
// 避免服务器被当作任意地址的投递目标。
func (s *session) Rcpt(to string, _ *gosmtp.RcptOptions) error {
	addr := normalizeAddress(to)

	if s.backend.allowedDomain != "" {
		parts := strings.Split(addr, "@")
		if len(parts) != 2 {
			return &gosmtp.SMTPError{
				Code:         501,
				EnhancedCode: gosmtp.EnhancedCode{5, 1, 3},
				Message:      "invalid recipient address",
			}
		}
		if !strings.EqualFold(parts[1], s.backend.allowedDomain) {
			return &gosmtp.SMTPError{
				Code:         550,
				EnhancedCode: gosmtp.EnhancedCode{5, 7, 1},
				Message:      "relay access denied - domain not managed by this server",
			}
		}
	}

	s.recipients = append(s.recipients, addr)
	return nil
}

// Data 处理邮件内容。
//
// 解析或落库失败只记录日志，不向发件方报错。
// 对发件方而言投递总是成功的，失败的邮件静默丢弃。
func (s *session) Data(r io.Reader) error {
	rawBytes, err := io.ReadAll(io.LimitReader(r, maxMessageBytes))
	if err != nil {
		s.backend.log.Warn("read message data failed", zap.Error(err))
		return nil
	}

	parsed, err := ParseEmail(rawBytes)
	if err != nil {
		s.backend.log.Warn("parse email failed, discarding",
			zap.String("from", s.fromAddress),
			zap.Error(err),
		)
		if s.backend.metrics != nil {
			s.backend.metrics.SMTPParseFailures.Inc()
		}
		return nil
	}

	if s.backend.metrics != nil {
		s.backend.metrics.SMTPMessagesReceived.Inc()
	}

	// 为每个收件人落库一封
	for _, rcpt := range s.recipients {
		discarded := service.LocalPart(rcpt) == ""
		err := s.backend.ingest.Ingest(service.IngestInput{
			MessageID: parsed.MessageID,
			From:      s.fromAddress,
			To:        rcpt,
			Subject:   parsed.Subject,
			BodyHTML:  parsed.HTML,
			BodyText:  parsed.Text,
		})
		if err != nil {
			s.backend.log.Error("ingest email failed, discarding",
				zap.String("to", rcpt),
				zap.Error(err),
			)
			if s.backend.metrics != nil {
				s.backend.metrics.RecordError("ingest", "smtp")
			}
			continue
		}
		if s.backend.metrics != nil {
			if discarded {
				s.backend.metrics.RecordEmailDiscarded()
			} else {
				s.backend.metrics.RecordEmailIngested()
			}
		}
	}

	return nil
}

// AuthPlain 处理 PLAIN 认证（此处允许匿名）。
func (s *session) AuthPlain(username, password string) error {
	return nil
}

// Reset 重置状态。
func (s *session) Reset() {
	s.fromAddress = ""
	s.recipients = nil
}

// Logout 会话结束。
func (s *session) Logout() error {
	if s.backend.limiter != nil {
		s.backend.limiter.Release()
	}
	if s.backend.metrics != nil {
		s.backend.metrics.SMTPConnections.Dec()
	}
	return nil
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	addr = strings.Trim(addr, "<>")
	return strings.ToLower(addr)
}

func decodeHeader(value string) string {
	if value == "" {
		return value
	}
	decoder := new(mime.WordDecoder)
	decoded, err := decoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// NewServer 基于 Backend 构建只收不发的 SMTP 服务器。
func NewServer(backend *Backend, addr, domain string) *gosmtp.Server {
	server := gosmtp.NewServer(backend)
	server.Addr = addr
	server.Domain = domain
	server.MaxMessageBytes = maxMessageBytes
	server.MaxRecipients = 50
	server.AllowInsecureAuth = true
	return server
}
