package domain

import "errors"

var (
	// ErrMailboxNotFound 邮箱编码不存在
	ErrMailboxNotFound = errors.New("mailbox not found")

	// ErrMailboxExists 邮箱编码已被占用
	ErrMailboxExists = errors.New("mailbox already exists")

	// ErrWrongPassword 口令校验失败
	ErrWrongPassword = errors.New("wrong password")
)
