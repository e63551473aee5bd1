package classifier

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/YKarmar/ApplicationTracker/internal/types"
)

// 关键词组，按优先级排列，先匹配者生效
type rule struct {
	status   types.Status
	keywords []string
}

var rules = []rule{
	{types.StatusApplied, []string{"received", "confirmation", "submitted", "thank you for applying"}},
	{types.StatusAccepted, []string{"interview", "invited", "invite", "pleased", "congratulations", "offer"}},
	{types.StatusRejected, []string{"rejected", "declined", "not selected", "unfortunately", "regret to inform"}},
}

const dateLayout = "2006-01-02"

// 邮件分类器
type Classifier struct {
	atsDomain string
	title     cases.Caser
}

// 创建分类器，atsDomain 为招聘系统发件域名标记，例如 "@myworkday.com"
func New(atsDomain string) *Classifier {
	return &Classifier{
		atsDomain: strings.ToLower(atsDomain),
		title:     cases.Title(language.Und),
	}
}

// Classify 将一封邮件转换为结果记录
func (c *Classifier) Classify(email types.Email) types.ClassifiedEmail {
	status, _ := Status(ExtractText(email))
	return types.ClassifiedEmail{
		Company: c.Company(email.From),
		Status:  status,
		Date:    email.Date.Format(dateLayout),
	}
}

// Status 按优先级匹配关键词，未命中时返回 false
func Status(text string) (types.Status, bool) {
	text = strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return r.status, true
			}
		}
	}
	return "", false
}

// Company 从发件人推断公司：招聘系统域名前的部分首字母大写，否则原样返回
func (c *Classifier) Company(sender string) string {
	if c.atsDomain == "" {
		return sender
	}
	idx := indexFold(sender, c.atsDomain)
	if idx < 0 {
		return sender
	}
	return c.titleWords(sender[:idx])
}

// 在原串上按字节窗口做大小写无关查找，返回的下标可直接用于切片
func indexFold(s, marker string) int {
	n := len(marker)
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], marker) {
			return i
		}
	}
	return -1
}

// 每段连续字母单独首字母大写，数字和标点之后开始新词，如 "acme123corp" -> "Acme123Corp"、"o'neil" -> "O'Neil"
func (c *Classifier) titleWords(s string) string {
	var b strings.Builder
	start := -1
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if isCased(r) {
			if start < 0 {
				start = i
			}
		} else {
			if start >= 0 {
				b.WriteString(c.title.String(s[start:i]))
				start = -1
			}
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	if start >= 0 {
		b.WriteString(c.title.String(s[start:]))
	}
	return b.String()
}

func isCased(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
}

// ExtractText 优先使用 HTML 正文，没有时退回纯文本
func ExtractText(email types.Email) string {
	if strings.TrimSpace(email.BodyHTML) != "" {
		return HTMLToText(email.BodyHTML)
	}
	return email.BodyText
}

// HTMLToText 去掉标签，每个文本块去除首尾空白后以换行拼接
func HTMLToText(doc string) string {
	z := html.NewTokenizer(strings.NewReader(doc))

	var blocks []string
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF 或残缺的 HTML，都返回已提取的部分
			return strings.Join(blocks, "\n")
		case html.StartTagToken:
			if isRawText(z.Token().DataAtom) {
				skip++
			}
		case html.EndTagToken:
			if isRawText(z.Token().DataAtom) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			if s := strings.TrimSpace(string(z.Text())); s != "" {
				blocks = append(blocks, s)
			}
		}
	}
}

func isRawText(a atom.Atom) bool {
	return a == atom.Script || a == atom.Style
}
