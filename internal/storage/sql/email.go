package sql

import (
	"codemail/backend/internal/domain"
)

// ========== Email Repository ==========

// SaveEmail 落库一封邮件。邮箱编码是弱引用，不校验存在性，
// 同一 message_id 重复投递会产生多行。
func (s *Store) SaveEmail(email *domain.Email) error {
	query := s.rebind(`
		INSERT INTO emails (id, mailbox_code, message_id, from_address, to_address,
		                    subject, body_html, body_text, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := s.db.Exec(query,
		email.ID,
		email.MailboxCode,
		email.MessageID,
		email.FromAddress,
		email.ToAddress,
		email.Subject,
		email.BodyHTML,
		email.BodyText,
		email.ReceivedAt,
	)
	return err
}

// ListEmails 按接收时间倒序返回某编码下的全部邮件
func (s *Store) ListEmails(code string) ([]domain.Email, error) {
	query := s.rebind(`
		SELECT id, mailbox_code, message_id, from_address, to_address,
		       subject, body_html, body_text, received_at
		FROM emails
		WHERE mailbox_code = ?
		ORDER BY received_at DESC
	`)

	rows, err := s.db.Query(query, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emails := make([]domain.Email, 0)
	for rows.Next() {
		var email domain.Email
		err := rows.Scan(
			&email.ID,
			&email.MailboxCode,
			&email.MessageID,
			&email.FromAddress,
			&email.ToAddress,
			&email.Subject,
			&email.BodyHTML,
			&email.BodyText,
			&email.ReceivedAt,
		)
		if err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}

	return emails, rows.Err()
}
