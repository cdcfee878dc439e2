package smtp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawEmail(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

func TestParseEmail(t *testing.T) {
	t.Run("纯文本邮件", func(t *testing.T) {
		raw := rawEmail(
			"Message-ID: <abc@mail.example.com>",
			"From: sender@example.com",
			"To: swift-fox-123@inbox.example.com",
			"Subject: hello",
			"Content-Type: text/plain; charset=utf-8",
			"",
			"plain body",
		)

		parsed, err := ParseEmail(raw)

		require.NoError(t, err)
		assert.Equal(t, "<abc@mail.example.com>", parsed.MessageID)
		assert.Equal(t, "hello", parsed.Subject)
		assert.Equal(t, "sender@example.com", parsed.From)
		assert.Equal(t, "swift-fox-123@inbox.example.com", parsed.To)
		assert.Equal(t, "plain body\r\n", parsed.Text)
		assert.Empty(t, parsed.HTML)
	})

	t.Run("无ContentType当作纯文本", func(t *testing.T) {
		raw := rawEmail(
			"From: sender@example.com",
			"Subject: no content type",
			"",
			"raw body",
		)

		parsed, err := ParseEmail(raw)

		require.NoError(t, err)
		assert.Equal(t, "raw body\r\n", parsed.Text)
	})

	t.Run("multipart同时提取文本和HTML", func(t *testing.T) {
		raw := rawEmail(
			"From: sender@example.com",
			"Subject: multipart",
			`Content-Type: multipart/alternative; boundary="BOUNDARY"`,
			"",
			"--BOUNDARY",
			"Content-Type: text/plain; charset=utf-8",
			"",
			"text part",
			"--BOUNDARY",
			"Content-Type: text/html; charset=utf-8",
			"",
			"<p>html part</p>",
			"--BOUNDARY--",
		)

		parsed, err := ParseEmail(raw)

		require.NoError(t, err)
		assert.Contains(t, parsed.Text, "text part")
		assert.Contains(t, parsed.HTML, "<p>html part</p>")
	})

	t.Run("附件被忽略", func(t *testing.T) {
		raw := rawEmail(
			"From: sender@example.com",
			"Subject: with attachment",
			`Content-Type: multipart/mixed; boundary="BOUNDARY"`,
			"",
			"--BOUNDARY",
			"Content-Type: text/plain; charset=utf-8",
			"",
			"see attachment",
			"--BOUNDARY",
			"Content-Type: application/octet-stream",
			`Content-Disposition: attachment; filename="data.bin"`,
			"Content-Transfer-Encoding: base64",
			"",
			"AAAA",
			"--BOUNDARY--",
		)

		parsed, err := ParseEmail(raw)

		require.NoError(t, err)
		assert.Contains(t, parsed.Text, "see attachment")
		assert.Empty(t, parsed.HTML)
	})

	t.Run("编码过的主题被解码", func(t *testing.T) {
		raw := rawEmail(
			"From: sender@example.com",
			"Subject: =?utf-8?q?h=C3=A9llo?=",
			"Content-Type: text/plain; charset=utf-8",
			"",
			"body",
		)

		parsed, err := ParseEmail(raw)

		require.NoError(t, err)
		assert.Equal(t, "héllo", parsed.Subject)
	})

	t.Run("base64和GBK正文被解码", func(t *testing.T) {
		// "你好" 的 GBK 字节再 base64
		raw := rawEmail(
			"From: sender@example.com",
			"Subject: gbk",
			"Content-Type: text/plain; charset=gbk",
			"Content-Transfer-Encoding: base64",
			"",
			"xOO6ww==",
		)

		parsed, err := ParseEmail(raw)

		require.NoError(t, err)
		assert.Equal(t, "你好", parsed.Text)
	})

	t.Run("quoted-printable正文被解码", func(t *testing.T) {
		raw := rawEmail(
			"From: sender@example.com",
			"Subject: qp",
			"Content-Type: text/plain; charset=utf-8",
			"Content-Transfer-Encoding: quoted-printable",
			"",
			"caf=C3=A9",
		)

		parsed, err := ParseEmail(raw)

		require.NoError(t, err)
		assert.Contains(t, parsed.Text, "café")
	})

	t.Run("无法解析的内容返回错误", func(t *testing.T) {
		_, err := ParseEmail([]byte("not an email at all"))
		assert.Error(t, err)
	})
}
