package memory

import (
	"sort"
	"sync"
	"time"

	"codemail/backend/internal/domain"
)

// Store 使用内存保存邮箱与邮件数据，主要用于开发验证与测试。
type Store struct {
	mu        sync.RWMutex
	mailboxes map[string]*domain.Mailbox // code -> mailbox
	emails    []*domain.Email            // 落库顺序，读取时按接收时间排序
}

// NewStore 创建一个内存存储实例。
func NewStore() *Store {
	return &Store{
		mailboxes: make(map[string]*domain.Mailbox),
		emails:    make([]*domain.Email, 0),
	}
}

// CreateMailbox 新建邮箱，编码冲突时返回 domain.ErrMailboxExists。
func (s *Store) CreateMailbox(mailbox *domain.Mailbox) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mailboxes[mailbox.Code]; ok {
		return domain.ErrMailboxExists
	}

	clone := *mailbox
	s.mailboxes[mailbox.Code] = &clone
	return nil
}

// GetMailbox 按编码获取邮箱。
func (s *Store) GetMailbox(code string) (*domain.Mailbox, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mailbox, ok := s.mailboxes[code]
	if !ok {
		return nil, domain.ErrMailboxNotFound
	}

	clone := *mailbox
	return &clone, nil
}

// RotatePasswordHash 原子地校验并替换口令摘要。
// 校验和替换在同一把锁内完成，两个并发轮换不会都以同一旧摘要成功。
func (s *Store) RotatePasswordHash(code, currentHash, newHash string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mailbox, ok := s.mailboxes[code]
	if !ok {
		return domain.ErrMailboxNotFound
	}
	if mailbox.PasswordHash != currentHash {
		return domain.ErrWrongPassword
	}

	mailbox.PasswordHash = newHash
	mailbox.UpdatedAt = now
	return nil
}

// SaveEmail 落库一封邮件。不校验邮箱编码是否存在。
func (s *Store) SaveEmail(email *domain.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *email
	s.emails = append(s.emails, &clone)
	return nil
}

// ListEmails 按接收时间倒序返回某编码下的全部邮件。
func (s *Store) ListEmails(code string) ([]domain.Email, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Email, 0)
	for _, email := range s.emails {
		if email.MailboxCode == code {
			result = append(result, *email)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ReceivedAt.After(result[j].ReceivedAt)
	})

	return result, nil
}

// Close 关闭存储，内存实现无事可做。
func (s *Store) Close() error {
	return nil
}

// Health 健康检查，内存实现总是健康。
func (s *Store) Health() error {
	return nil
}
