package domain

import (
	"time"
)

// Email 表示一封已接收的邮件。
//
// MailboxCode 是弱引用：投递时不校验邮箱是否存在，邮件行总是落库。
// 同一 MessageID 重复投递会产生多行记录，读取侧不做去重。
type Email struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	MailboxCode string    `json:"mailbox_code" gorm:"column:mailbox_code;type:varchar(64);index"`
	MessageID   string    `json:"message_id" gorm:"column:message_id;type:varchar(255)"`
	FromAddress string    `json:"from_address" gorm:"column:from_address;type:varchar(255)"`
	ToAddress   string    `json:"to_address" gorm:"column:to_address;type:varchar(255)"`
	Subject     string    `json:"subject" gorm:"type:text"`
	BodyHTML    string    `json:"body_html" gorm:"column:body_html;type:longtext"`
	BodyText    string    `json:"body_text" gorm:"column:body_text;type:longtext"`
	ReceivedAt  time.Time `json:"received_at" gorm:"column:received_at;index"`
}

// TableName 指定存储表名。
func (Email) TableName() string {
	return "emails"
}
