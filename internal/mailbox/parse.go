package mailbox

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// 单封邮件解析结果
type Parsed struct {
	From     string
	Subject  string
	Date     time.Time
	BodyText string
	BodyHTML string
}

// Parse 解析 RFC 5322 邮件，取第一个 text/plain 和第一个 text/html 内联部分，附件忽略
func Parse(r io.Reader) (Parsed, error) {
	var out Parsed

	mr, err := mail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return out, fmt.Errorf("read message: %w", err)
	}
	defer mr.Close()

	if addrs, err := mr.Header.AddressList("From"); err == nil && len(addrs) > 0 {
		out.From = addrs[0].Address
	}
	out.Subject, _ = mr.Header.Subject()
	out.Date, _ = mr.Header.Date()

	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return out, fmt.Errorf("read part: %w", err)
		}
		if p == nil {
			continue
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, err := h.ContentType()
		if err != nil || ct == "" {
			ct = "text/plain"
		}

		switch strings.ToLower(ct) {
		case "text/plain":
			if out.BodyText != "" {
				continue
			}
			b, err := io.ReadAll(p.Body)
			if err != nil {
				return out, fmt.Errorf("read text/plain part: %w", err)
			}
			out.BodyText = string(b)
		case "text/html":
			if out.BodyHTML != "" {
				continue
			}
			b, err := io.ReadAll(p.Body)
			if err != nil {
				return out, fmt.Errorf("read text/html part: %w", err)
			}
			out.BodyHTML = string(b)
		}
	}

	return out, nil
}
