package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashPassword 计算口令的 SHA-256 摘要，返回小写十六进制字符串。
//
// 摘要不加盐且确定：同一口令总是得到同一摘要。这是存量数据的
// 存储格式，升级哈希算法需要同时迁移全部 users 行。
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// CheckPassword 检查口令与存量摘要是否匹配。
func CheckPassword(password, hash string) bool {
	computed := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}
