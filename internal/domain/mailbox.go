package domain

import (
	"time"
)

// Mailbox 表示一次性邮箱的业务实体。
//
// Code 是形如 "swift-fox-123" 的人类可读标识，同时也是收件地址的
// 本地部分（<code>@<domain>）。PasswordHash 是口令的 SHA-256 小写
// 十六进制摘要；开放模式下该字段存放初始口令的摘要但不参与校验。
type Mailbox struct {
	Code         string    `json:"mailbox_code" gorm:"column:mailbox_code;primaryKey;type:varchar(64)"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;type:char(64);not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName 指定存储表名。
func (Mailbox) TableName() string {
	return "users"
}
