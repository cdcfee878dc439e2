package auth

import (
	"fmt"
	"strings"
	"time"

	"codemail/backend/internal/domain"
)

// MailboxRepository 邮箱凭证存储接口
type MailboxRepository interface {
	CreateMailbox(mailbox *domain.Mailbox) error
	GetMailbox(code string) (*domain.Mailbox, error)
	RotatePasswordHash(code, currentHash, newHash string, now time.Time) error
}

// Service 凭证服务，封装邮箱口令的建立、校验与轮换。
type Service struct {
	mailboxes MailboxRepository
}

// NewService 创建凭证服务
func NewService(mailboxes MailboxRepository) *Service {
	return &Service{
		mailboxes: mailboxes,
	}
}

// CreateMailbox 以给定口令建立邮箱凭证。
// 编码已被占用时返回 domain.ErrMailboxExists。
func (s *Service) CreateMailbox(code, password string) (*domain.Mailbox, error) {
	code = strings.TrimSpace(code)
	if err := domain.ValidatePassword(password); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	mailbox := &domain.Mailbox{
		Code:         code,
		PasswordHash: HashPassword(password),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.mailboxes.CreateMailbox(mailbox); err != nil {
		return nil, err
	}

	return mailbox, nil
}

// VerifyPassword 校验邮箱口令。
// 邮箱不存在返回 domain.ErrMailboxNotFound，口令不符返回
// domain.ErrWrongPassword。
func (s *Service) VerifyPassword(code, password string) error {
	mailbox, err := s.mailboxes.GetMailbox(code)
	if err != nil {
		return err
	}

	if !CheckPassword(password, mailbox.PasswordHash) {
		return domain.ErrWrongPassword
	}

	return nil
}

// Exists 检查邮箱编码是否已被开通。
func (s *Service) Exists(code string) (bool, error) {
	_, err := s.mailboxes.GetMailbox(code)
	if err == domain.ErrMailboxNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup mailbox: %w", err)
	}
	return true, nil
}

// RotatePassword 校验当前口令并替换为新口令。
//
// 校验与替换在存储层作为单个受保护的更新执行，两个并发轮换
// 不会都以同一个旧口令成功。邮箱不存在返回
// domain.ErrMailboxNotFound，当前口令不符返回 domain.ErrWrongPassword。
func (s *Service) RotatePassword(code, currentPassword, newPassword string) error {
	if err := domain.ValidatePassword(newPassword); err != nil {
		return err
	}

	currentHash := HashPassword(currentPassword)
	newHash := HashPassword(newPassword)

	return s.mailboxes.RotatePasswordHash(code, currentHash, newHash, time.Now().UTC())
}
