package sql

import (
	"database/sql"
	"fmt"
	"time"

	"codemail/backend/internal/domain"
)

// ========== Mailbox Repository ==========

// CreateMailbox 新建邮箱凭证
func (s *Store) CreateMailbox(mailbox *domain.Mailbox) error {
	exists, err := s.mailboxExists(mailbox.Code)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrMailboxExists
	}

	query := s.rebind(`
		INSERT INTO users (mailbox_code, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`)
	_, err = s.db.Exec(query,
		mailbox.Code,
		mailbox.PasswordHash,
		mailbox.CreatedAt,
		mailbox.UpdatedAt,
	)
	if err != nil {
		// 并发创建时主键冲突兜底
		if again, checkErr := s.mailboxExists(mailbox.Code); checkErr == nil && again {
			return domain.ErrMailboxExists
		}
		return fmt.Errorf("insert mailbox: %w", err)
	}
	return nil
}

// GetMailbox 根据编码获取邮箱
func (s *Store) GetMailbox(code string) (*domain.Mailbox, error) {
	query := s.rebind(`
		SELECT mailbox_code, password_hash, created_at, updated_at
		FROM users
		WHERE mailbox_code = ?
	`)

	var mailbox domain.Mailbox
	err := s.db.QueryRow(query, code).Scan(
		&mailbox.Code,
		&mailbox.PasswordHash,
		&mailbox.CreatedAt,
		&mailbox.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrMailboxNotFound
	}
	if err != nil {
		return nil, err
	}

	return &mailbox, nil
}

// RotatePasswordHash 原子地校验并替换口令摘要。
// 更新语句同时匹配编码和存量摘要，并发轮换只有一个会命中。
func (s *Store) RotatePasswordHash(code, currentHash, newHash string, now time.Time) error {
	query := s.rebind(`
		UPDATE users
		SET password_hash = ?, updated_at = ?
		WHERE mailbox_code = ? AND password_hash = ?
	`)

	result, err := s.db.Exec(query, newHash, now, code, currentHash)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// 未命中：区分邮箱不存在和口令不符
	exists, err := s.mailboxExists(code)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrMailboxNotFound
	}
	return domain.ErrWrongPassword
}

// mailboxExists 检查编码是否已存在
func (s *Store) mailboxExists(code string) (bool, error) {
	query := s.rebind(`SELECT COUNT(*) FROM users WHERE mailbox_code = ?`)

	var count int
	if err := s.db.QueryRow(query, code).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
