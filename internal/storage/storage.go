package storage

import (
	"time"

	"codemail/backend/internal/domain"
)

// MailboxRepository 定义邮箱数据存取操作。
type MailboxRepository interface {
	// CreateMailbox 新建邮箱，编码冲突时返回 domain.ErrMailboxExists。
	CreateMailbox(mailbox *domain.Mailbox) error
	// GetMailbox 按编码查询邮箱，不存在时返回 domain.ErrMailboxNotFound。
	GetMailbox(code string) (*domain.Mailbox, error)
	// RotatePasswordHash 原子地校验并替换口令摘要。
	// 只有当存量摘要等于 currentHash 时才写入 newHash 并推进 updated_at；
	// 邮箱不存在返回 domain.ErrMailboxNotFound，摘要不匹配返回
	// domain.ErrWrongPassword。
	RotatePasswordHash(code, currentHash, newHash string, now time.Time) error
}

// EmailRepository 定义邮件数据存取操作。
type EmailRepository interface {
	// SaveEmail 落库一封邮件。邮箱编码是弱引用，不校验存在性。
	SaveEmail(email *domain.Email) error
	// ListEmails 按接收时间倒序返回某编码下的全部邮件。
	// 编码不存在或没有邮件时返回空切片而非错误。
	ListEmails(code string) ([]domain.Email, error)
}

// Store 定义完整的存储接口。
type Store interface {
	MailboxRepository
	EmailRepository

	// 工具方法
	Close() error
	Health() error
}
