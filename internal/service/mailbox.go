package service

import (
	"errors"

	"go.uber.org/zap"

	"codemail/backend/internal/auth"
	"codemail/backend/internal/cache"
	"codemail/backend/internal/domain"
)

// InitialPassword 新开通邮箱的初始口令。
// 页面上向管理员明示该口令，用户首次登录后自行修改。
const InitialPassword = "111111"

// maxProvisionAttempts 编码冲突时的重试上限
const maxProvisionAttempts = 5

var (
	// ErrCodeExhausted 连续多次生成的编码都已被占用
	ErrCodeExhausted = errors.New("failed to allocate an unused mailbox code")
)

// CodeGenerator 编码生成接口
type CodeGenerator interface {
	Generate() string
}

// MailboxService 封装邮箱开通相关业务操作。
type MailboxService struct {
	credentials *auth.Service
	generator   CodeGenerator
	codes       *cache.CodeCache // 可选，存在性查询的正向缓存
	log         *zap.Logger
}

// NewMailboxService 创建邮箱业务服务。
func NewMailboxService(credentials *auth.Service, generator CodeGenerator, log *zap.Logger) *MailboxService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MailboxService{
		credentials: credentials,
		generator:   generator,
		log:         log,
	}
}

// WithExistenceCache 启用编码存在性缓存。
// 编码从不注销，缓存只记录正向结论，开放模式下的高频轮询
// 和校验接口可以省掉一次存储查询。
func (s *MailboxService) WithExistenceCache(codes *cache.CodeCache) *MailboxService {
	s.codes = codes
	return s
}

// ProvisionResult 开通结果
type ProvisionResult struct {
	Code            string
	InitialPassword string
}

// Provision 开通一个新邮箱。
// 生成器不保证编码唯一，冲突时换一个编码重试，连续失败达到
// 上限后放弃并返回 ErrCodeExhausted。
func (s *MailboxService) Provision() (*ProvisionResult, error) {
	for attempt := 1; attempt <= maxProvisionAttempts; attempt++ {
		code := s.generator.Generate()

		_, err := s.credentials.CreateMailbox(code, InitialPassword)
		if err == domain.ErrMailboxExists {
			s.log.Debug("mailbox code collision, retrying",
				zap.String("code", code),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return nil, err
		}

		s.log.Info("mailbox provisioned", zap.String("code", code))
		s.markKnown(code)
		return &ProvisionResult{
			Code:            code,
			InitialPassword: InitialPassword,
		}, nil
	}

	return nil, ErrCodeExhausted
}

// ProvisionWithCode 以指定编码开通邮箱，供离线开通工具使用。
func (s *MailboxService) ProvisionWithCode(code string) (*ProvisionResult, error) {
	if err := domain.ValidateCode(code); err != nil {
		return nil, err
	}

	if _, err := s.credentials.CreateMailbox(code, InitialPassword); err != nil {
		return nil, err
	}

	s.log.Info("mailbox provisioned", zap.String("code", code))
	s.markKnown(code)
	return &ProvisionResult{
		Code:            code,
		InitialPassword: InitialPassword,
	}, nil
}

// Exists 检查邮箱编码是否已开通
func (s *MailboxService) Exists(code string) (bool, error) {
	if s.codes != nil && s.codes.Contains(code) {
		return true, nil
	}

	exists, err := s.credentials.Exists(code)
	if err != nil {
		return false, err
	}
	if exists {
		s.markKnown(code)
	}
	return exists, nil
}

func (s *MailboxService) markKnown(code string) {
	if s.codes != nil {
		s.codes.Mark(code)
	}
}
