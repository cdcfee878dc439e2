package httptransport

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"codemail/backend/internal/auth"
	"codemail/backend/internal/auth/session"
	"codemail/backend/internal/domain"
	"codemail/backend/internal/monitoring"
	"codemail/backend/internal/service"
)

// Handler 聚合所有 HTTP 处理逻辑。
type Handler struct {
	mailboxes   *service.MailboxService
	inbox       *service.InboxService
	credentials *auth.Service
	sessions    *session.Manager
	metrics     *monitoring.Metrics // 可选
	log         *zap.Logger

	// passwordRequired 为 false 时是开放模式，凭编码即可读收件箱
	passwordRequired bool
}

// NewHandler 创建 HTTP 处理器。metrics 可以为 nil。
func NewHandler(
	mailboxes *service.MailboxService,
	inbox *service.InboxService,
	credentials *auth.Service,
	sessions *session.Manager,
	metrics *monitoring.Metrics,
	log *zap.Logger,
	passwordRequired bool,
) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		mailboxes:        mailboxes,
		inbox:            inbox,
		credentials:      credentials,
		sessions:         sessions,
		metrics:          metrics,
		log:              log,
		passwordRequired: passwordRequired,
	}
}

// ========== 响应结构体 ==========

type emailItem struct {
	FromAddress string    `json:"from_address"`
	Subject     string    `json:"subject"`
	ReceivedAt  time.Time `json:"received_at"`
	BodyHTML    string    `json:"body_html"`
	BodyText    string    `json:"body_text"`
}

type loginRequest struct {
	Code     string `json:"mailbox_code"`
	Password string `json:"password"`
}

type newMailboxResponse struct {
	NewCode         string `json:"new_code"`
	InitialPassword string `json:"initial_password"`
}

type changePasswordRequest struct {
	Code            string `json:"mailbox_code"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type validateResponse struct {
	Exists bool `json:"exists"`
}

// toEmailItems 转换邮件实体为对外投影，不暴露编码和收件地址。
func toEmailItems(emails []domain.Email) []emailItem {
	items := make([]emailItem, 0, len(emails))
	for i := range emails {
		items = append(items, emailItem{
			FromAddress: emails[i].FromAddress,
			Subject:     emails[i].Subject,
			ReceivedAt:  emails[i].ReceivedAt,
			BodyHTML:    emails[i].BodyHTML,
			BodyText:    emails[i].BodyText,
		})
	}
	return items
}

// ========== API 处理器 ==========

// LoginAndFetch 登录并拉取收件箱
// @Summary 登录并拉取收件箱
// @Description 校验编码和口令，成功后返回全部邮件（按接收时间倒序）。
// @Description 响应头 X-Session-Token 携带短时效会话令牌，后续轮询可凭它代替口令。
// @Tags Mailbox
// @Accept json
// @Produce json
// @Param request body loginRequest true "登录凭证"
// @Success 200 {array} emailItem
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Router /api/login-and-fetch [post]
func (h *Handler) LoginAndFetch(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: MsgMissingCredentials})
		return
	}

	if req.Code == "" || (h.passwordRequired && req.Password == "") {
		c.JSON(http.StatusBadRequest, errorResponse{Error: MsgMissingCredentials})
		return
	}

	if h.passwordRequired {
		if err := h.credentials.VerifyPassword(req.Code, req.Password); err != nil {
			if errors.Is(err, domain.ErrMailboxNotFound) || errors.Is(err, domain.ErrWrongPassword) {
				h.recordLogin("failure")
				c.JSON(http.StatusUnauthorized, errorResponse{Error: MsgUnauthorized})
				return
			}
			h.log.Error("verify password failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, errorResponse{Error: MsgInternalError})
			return
		}
	} else {
		exists, err := h.mailboxes.Exists(req.Code)
		if err != nil {
			h.log.Error("lookup mailbox failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, errorResponse{Error: MsgInternalError})
			return
		}
		if !exists {
			h.recordLogin("failure")
			c.JSON(http.StatusUnauthorized, errorResponse{Error: MsgUnauthorized})
			return
		}
	}

	h.recordLogin("success")

	// 签发会话令牌，轮询时不用反复提交口令
	if token, err := h.sessions.Issue(req.Code); err == nil {
		c.Header("X-Session-Token", token)
	} else {
		h.log.Error("issue session token failed", zap.Error(err))
	}

	emails, err := h.inbox.ListEmails(req.Code)
	if err != nil {
		h.log.Error("list emails failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: MsgInternalError})
		return
	}

	c.JSON(http.StatusOK, toEmailItems(emails))
}

// ListEmails 拉取收件箱
// @Summary 拉取收件箱
// @Description 按接收时间倒序返回编码下的全部邮件。口令模式下需携带会话令牌。
// @Tags Mailbox
// @Produce json
// @Param code path string true "邮箱编码"
// @Success 200 {array} emailItem
// @Failure 401 {object} errorResponse
// @Router /api/emails/{code} [get]
func (h *Handler) ListEmails(c *gin.Context) {
	code := c.Param("code")

	emails, err := h.inbox.ListEmails(code)
	if err != nil {
		h.log.Error("list emails failed", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: MsgInternalError})
		return
	}

	c.JSON(http.StatusOK, toEmailItems(emails))
}

// NewMailbox 开通新邮箱
// @Summary 开通新邮箱
// @Description 随机生成一个未占用的编码并以初始口令开通。需要管理员口令。
// @Tags Admin
// @Produce json
// @Param admin query string true "管理员口令"
// @Success 200 {object} newMailboxResponse
// @Failure 403 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/mailbox/new [post]
func (h *Handler) NewMailbox(c *gin.Context) {
	result, err := h.mailboxes.Provision()
	if err != nil {
		h.log.Error("provision mailbox failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: MsgCreateFailed})
		return
	}

	if h.metrics != nil {
		h.metrics.RecordMailboxProvisioned()
	}

	c.JSON(http.StatusOK, newMailboxResponse{
		NewCode:         result.Code,
		InitialPassword: result.InitialPassword,
	})
}

// ChangePassword 修改口令
// @Summary 修改口令
// @Description 校验当前口令并原子地轮换为新口令。
// @Tags Mailbox
// @Accept json
// @Produce json
// @Param request body changePasswordRequest true "口令轮换参数"
// @Success 200 {object} object{success=bool}
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /api/user/change-password [post]
func (h *Handler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: MsgMissingParameters})
		return
	}

	if req.Code == "" || req.CurrentPassword == "" || req.NewPassword == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: MsgMissingParameters})
		return
	}

	err := h.credentials.RotatePassword(req.Code, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMailboxNotFound):
			c.JSON(http.StatusNotFound, errorResponse{Error: MsgUserNotFound})
		case errors.Is(err, domain.ErrWrongPassword):
			c.JSON(http.StatusForbidden, errorResponse{Error: MsgWrongPassword})
		default:
			h.log.Error("rotate password failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, errorResponse{Error: MsgInternalError})
		}
		return
	}

	if h.metrics != nil {
		h.metrics.RecordPasswordRotation()
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ValidateCode 检查编码是否已开通
// @Summary 检查编码是否已开通
// @Tags Mailbox
// @Produce json
// @Param code path string true "邮箱编码"
// @Success 200 {object} validateResponse
// @Router /api/validate/{code} [get]
func (h *Handler) ValidateCode(c *gin.Context) {
	code := c.Param("code")

	exists, err := h.mailboxes.Exists(code)
	if err != nil {
		h.log.Error("validate code failed", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: MsgInternalError})
		return
	}

	c.JSON(http.StatusOK, validateResponse{Exists: exists})
}

func (h *Handler) recordLogin(result string) {
	if h.metrics != nil {
		h.metrics.RecordLogin(result)
	}
}
