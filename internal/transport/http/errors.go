package httptransport

// 注意：对外 API 使用旧格式（直接返回数据或 {"error": "..."}），
// 错误消息字符串是对外契约的一部分，客户端按原文匹配，不要改动。

// errorResponse API 错误响应
type errorResponse struct {
	Error string `json:"error"`
}

// 对外错误消息
const (
	MsgMissingCredentials = "Missing credentials"
	MsgUnauthorized       = "Unauthorized"
	MsgForbidden          = "Forbidden"
	MsgMissingParameters  = "Missing parameters"
	MsgUserNotFound       = "User not found"
	MsgWrongPassword      = "Incorrect current password"
	MsgCreateFailed       = "Failed to create user, please try again."
	MsgInternalError      = "Internal server error"
)
