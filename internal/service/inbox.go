package service

import (
	"fmt"

	"codemail/backend/internal/domain"
	"codemail/backend/internal/storage"
)

// InboxService 封装收件箱查询。
type InboxService struct {
	emails storage.EmailRepository
}

// NewInboxService 创建收件箱查询服务。
func NewInboxService(emails storage.EmailRepository) *InboxService {
	return &InboxService{
		emails: emails,
	}
}

// ListEmails 按接收时间倒序返回某编码下的全部邮件。
// 编码未开通或没有邮件时返回空切片；不存在"收件箱未找到"这种错误。
func (s *InboxService) ListEmails(code string) ([]domain.Email, error) {
	emails, err := s.emails.ListEmails(code)
	if err != nil {
		return nil, fmt.Errorf("list emails: %w", err)
	}
	if emails == nil {
		emails = make([]domain.Email, 0)
	}
	return emails, nil
}
