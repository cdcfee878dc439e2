package domain

import (
	"errors"
	"regexp"
	"strings"
)

// 验证相关的错误定义
var (
	ErrInvalidCode  = errors.New("invalid mailbox code format")
	ErrCodeTooLong  = errors.New("mailbox code too long (max 64 chars)")
	ErrEmptyCode    = errors.New("mailbox code must not be empty")
	ErrPasswordEmpty = errors.New("password must not be empty")
)

// 验证常量
const (
	// 邮箱编码同时是收件地址的本地部分，受 RFC 5321 的 64 字符限制
	MaxCodeLength = 64
)

// codeRegex 校验 "形容词-名词-三位数字" 的编码格式
var codeRegex = regexp.MustCompile(`^[a-z]+-[a-z]+-[1-9][0-9]{2}$`)

// ValidateCode 校验邮箱编码格式。
//
// 生成器产出的编码总是合法；该校验用于手工指定编码的场景
// （如离线开通工具），防止写入无法作为收件地址的编码。
func ValidateCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrEmptyCode
	}
	if len(code) > MaxCodeLength {
		return ErrCodeTooLong
	}
	if !codeRegex.MatchString(code) {
		return ErrInvalidCode
	}
	return nil
}

// ValidatePassword 校验口令非空。
//
// 历史行为：除非空外不做强度要求，初始口令由服务端固定下发。
func ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordEmpty
	}
	return nil
}
