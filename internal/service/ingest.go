package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"codemail/backend/internal/domain"
	"codemail/backend/internal/storage"
)

// Notifier 新邮件通知接口，由 WebSocket Hub 实现。
type Notifier interface {
	NotifyNewMail(code string, email *domain.Email)
}

// IngestService 封装邮件投递落库。
type IngestService struct {
	emails   storage.EmailRepository
	notifier Notifier // 可选
	log      *zap.Logger
}

// NewIngestService 创建投递服务。notifier 可以为 nil。
func NewIngestService(emails storage.EmailRepository, notifier Notifier, log *zap.Logger) *IngestService {
	if log == nil {
		log = zap.NewNop()
	}
	return &IngestService{
		emails:   emails,
		notifier: notifier,
		log:      log,
	}
}

// IngestInput 一封待落库的邮件
type IngestInput struct {
	MessageID string
	From      string
	To        string
	Subject   string
	BodyHTML  string
	BodyText  string
}

// Ingest 落库一封邮件。
//
// 收件地址的本地部分就是邮箱编码；编码未开通也照常落库（弱引用），
// 本地部分为空则静默丢弃。返回 nil 表示丢弃或落库成功。
func (s *IngestService) Ingest(input IngestInput) error {
	code := LocalPart(input.To)
	if code == "" {
		s.log.Debug("discarding mail without recipient local part",
			zap.String("to", input.To),
		)
		return nil
	}

	email := &domain.Email{
		ID:          uuid.NewString(),
		MailboxCode: code,
		MessageID:   input.MessageID,
		FromAddress: input.From,
		ToAddress:   input.To,
		Subject:     input.Subject,
		BodyHTML:    input.BodyHTML,
		BodyText:    input.BodyText,
		ReceivedAt:  time.Now().UTC(),
	}

	if err := s.emails.SaveEmail(email); err != nil {
		return fmt.Errorf("save email: %w", err)
	}

	s.log.Info("email ingested",
		zap.String("code", code),
		zap.String("from", email.FromAddress),
		zap.String("subject", email.Subject),
	)

	if s.notifier != nil {
		s.notifier.NotifyNewMail(code, email)
	}

	return nil
}

// LocalPart 提取收件地址的本地部分并转为小写。
// 地址为空或以 @ 开头时返回空字符串。
func LocalPart(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return ""
	}
	local := strings.Split(address, "@")[0]
	return strings.ToLower(strings.TrimSpace(local))
}
