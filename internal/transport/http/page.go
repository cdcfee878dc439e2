package httptransport

import (
	"crypto/subtle"
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// PageHandler 收件箱页面处理器
type PageHandler struct {
	displayDomain    string
	passwordRequired bool
	adminSecret      string
}

// NewPageHandler 创建页面处理器
func NewPageHandler(displayDomain string, passwordRequired bool, adminSecret string) *PageHandler {
	return &PageHandler{
		displayDomain:    displayDomain,
		passwordRequired: passwordRequired,
		adminSecret:      adminSecret,
	}
}

// pageData 模板渲染数据
type pageData struct {
	DisplayDomain    string
	PasswordRequired bool
	Admin            bool
}

// Index 收件箱页面
// @Summary 收件箱页面
// @Description 渲染收件箱单页应用。页面每 30 秒轮询一次收件箱。
// @Description 带上正确的 admin 查询参数时额外渲染开通新邮箱的管理卡片。
// @Tags Page
// @Produce html
// @Success 200 {string} string "HTML"
// @Failure 500 {string} string "展示域名未配置"
// @Router / [get]
func (p *PageHandler) Index(c *gin.Context) {
	// 页面要拼出完整收件地址，没有展示域名就渲染不了
	if p.displayDomain == "" {
		c.String(http.StatusInternalServerError, "display domain is not configured")
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := indexTemplate.Execute(c.Writer, pageData{
		DisplayDomain:    p.displayDomain,
		PasswordRequired: p.passwordRequired,
		Admin:            p.isAdmin(c.Query("admin")),
	}); err != nil {
		c.String(http.StatusInternalServerError, "failed to render page")
	}
}

func (p *PageHandler) isAdmin(provided string) bool {
	if provided == "" || p.adminSecret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(p.adminSecret)) == 1
}
