package hybrid

import (
	"fmt"
	"time"

	"codemail/backend/internal/domain"
	"codemail/backend/internal/storage"
	"codemail/backend/internal/storage/redis"
)

// 缓存时效。邮件列表缓存短于前端 30 秒的轮询周期，
// 凭证缓存较长，轮换口令时主动失效。
const (
	mailboxCacheTTL   = 24 * time.Hour
	emailListCacheTTL = 20 * time.Second
)

// Store 混合存储实现，SQL 数据库持久化，Redis 做读缓存。
type Store struct {
	db    storage.Store
	cache *redis.Cache
}

// NewStore 创建混合存储实例
func NewStore(db storage.Store, cache *redis.Cache) *Store {
	return &Store{
		db:    db,
		cache: cache,
	}
}

// ========== Mailbox Repository ==========

// CreateMailbox 新建邮箱凭证
func (s *Store) CreateMailbox(mailbox *domain.Mailbox) error {
	if err := s.db.CreateMailbox(mailbox); err != nil {
		return err
	}

	// 缓存失败不影响主流程
	_ = s.cache.CacheMailbox(mailbox, mailboxCacheTTL)
	return nil
}

// GetMailbox 根据编码获取邮箱，优先读缓存
func (s *Store) GetMailbox(code string) (*domain.Mailbox, error) {
	if mailbox, err := s.cache.GetCachedMailbox(code); err == nil {
		return mailbox, nil
	}

	mailbox, err := s.db.GetMailbox(code)
	if err != nil {
		return nil, err
	}

	_ = s.cache.CacheMailbox(mailbox, mailboxCacheTTL)
	return mailbox, nil
}

// RotatePasswordHash 原子轮换口令摘要并使凭证缓存失效
func (s *Store) RotatePasswordHash(code, currentHash, newHash string, now time.Time) error {
	if err := s.db.RotatePasswordHash(code, currentHash, newHash, now); err != nil {
		return err
	}

	// 旧凭证不能继续通过缓存生效
	if err := s.cache.DeleteCachedMailbox(code); err != nil {
		return fmt.Errorf("invalidate mailbox cache: %w", err)
	}
	return nil
}

// ========== Email Repository ==========

// SaveEmail 落库邮件并使列表缓存失效
func (s *Store) SaveEmail(email *domain.Email) error {
	if err := s.db.SaveEmail(email); err != nil {
		return err
	}

	_ = s.cache.DeleteCachedEmailList(email.MailboxCode)
	return nil
}

// ListEmails 按接收时间倒序返回邮件列表，优先读缓存
func (s *Store) ListEmails(code string) ([]domain.Email, error) {
	if emails, err := s.cache.GetCachedEmailList(code); err == nil {
		return emails, nil
	}

	emails, err := s.db.ListEmails(code)
	if err != nil {
		return nil, err
	}

	_ = s.cache.CacheEmailList(code, emails, emailListCacheTTL)
	return emails, nil
}

// ========== 工具方法 ==========

// Close 关闭数据库与缓存连接
func (s *Store) Close() error {
	cacheErr := s.cache.Close()
	if err := s.db.Close(); err != nil {
		return err
	}
	return cacheErr
}

// Health 检查数据库与缓存健康状态
func (s *Store) Health() error {
	if err := s.db.Health(); err != nil {
		return err
	}
	return s.cache.Health()
}
