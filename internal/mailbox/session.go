package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"go.uber.org/zap"

	"github.com/YKarmar/ApplicationTracker/internal/types"
)

const dialTimeout = 30 * time.Second

// IMAP 连接参数
type Options struct {
	Host     string // host:port
	UseTLS   bool
	Username string
	Password string
	// 设置后使用 OAUTHBEARER 认证代替密码
	Token TokenProvider
}

// 邮件查询参数
type FetchQuery struct {
	Folder string
	Sender string
	Since  time.Time
	Limit  int
}

// Session 是一次登录后的 IMAP 会话，用完必须 Close
type Session struct {
	c      *client.Client
	logger *zap.Logger
}

// Open 连接并登录邮箱
func Open(ctx context.Context, opts Options, logger *zap.Logger) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dialer := &net.Dialer{Timeout: dialTimeout}
	var (
		c   *client.Client
		err error
	)
	if opts.UseTLS {
		c, err = client.DialWithDialerTLS(dialer, opts.Host, &tls.Config{ServerName: hostOnly(opts.Host)})
	} else {
		c, err = client.DialWithDialer(dialer, opts.Host)
	}
	if err != nil {
		return nil, fmt.Errorf("dial imap %s: %w", opts.Host, err)
	}

	if opts.Token != nil {
		err = authenticate(ctx, c, opts)
	} else {
		err = c.Login(opts.Username, opts.Password)
	}
	if err != nil {
		c.Logout()
		return nil, fmt.Errorf("imap login %s: %w", opts.Username, err)
	}

	logger.Info("imap session opened",
		zap.String("host", opts.Host),
		zap.String("user", opts.Username),
	)

	return &Session{c: c, logger: logger}, nil
}

// Close 登出并释放连接
func (s *Session) Close() error {
	if err := s.c.Logout(); err != nil {
		return fmt.Errorf("imap logout: %w", err)
	}
	s.logger.Debug("imap session closed")
	return nil
}

// Fetch 按发件人搜索邮件，按 UID 升序取前 Limit 封并解析正文
func (s *Session) Fetch(ctx context.Context, q FetchQuery) (emails []types.Email, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// ctx 取消时断开连接，让阻塞中的命令立即返回
	stop := context.AfterFunc(ctx, func() { _ = s.c.Terminate() })
	defer func() {
		stop()
		if err != nil && ctx.Err() != nil {
			err = fmt.Errorf("fetch %s: %w", q.Folder, ctx.Err())
		}
	}()

	mbox, err := s.c.Select(q.Folder, true)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", q.Folder, err)
	}
	if mbox.Messages == 0 {
		return nil, nil
	}

	criteria := imap.NewSearchCriteria()
	if q.Sender != "" {
		criteria.Header.Add("From", q.Sender)
	}
	if !q.Since.IsZero() {
		criteria.Since = q.Since
	}

	uids, err := s.c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", q.Folder, err)
	}
	uids = firstUIDs(uids, q.Limit)
	if len(uids) == 0 {
		return nil, nil
	}

	s.logger.Debug("messages matched",
		zap.String("folder", q.Folder),
		zap.String("sender", q.Sender),
		zap.Int("count", len(uids)),
	)

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, imap.FetchEnvelope, imap.FetchInternalDate, section.FetchItem()}

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- s.c.UidFetch(seqset, items, messages)
	}()

	var parseErr error
	for msg := range messages {
		if parseErr != nil {
			continue
		}
		email, err := convert(msg, section, q.Folder)
		if err != nil {
			parseErr = fmt.Errorf("parse message uid %d: %w", msg.Uid, err)
			continue
		}
		emails = append(emails, email)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch %s: %w", q.Folder, err)
	}
	if parseErr != nil {
		return nil, parseErr
	}

	sort.Slice(emails, func(i, j int) bool { return emails[i].UID < emails[j].UID })
	return emails, nil
}

// 搜索结果按 UID 升序排序后截取前 limit 个，limit<=0 表示不限制
func firstUIDs(uids []uint32, limit int) []uint32 {
	sorted := make([]uint32, len(uids))
	copy(sorted, uids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func convert(msg *imap.Message, section *imap.BodySectionName, folder string) (types.Email, error) {
	email := types.Email{
		UID:    msg.Uid,
		Folder: folder,
		Date:   msg.InternalDate,
	}

	if msg.Envelope != nil {
		if len(msg.Envelope.From) > 0 {
			email.From = msg.Envelope.From[0].Address()
		}
		email.Subject = msg.Envelope.Subject
		if !msg.Envelope.Date.IsZero() {
			email.Date = msg.Envelope.Date
		}
	}

	body := msg.GetBody(section)
	if body == nil {
		return email, fmt.Errorf("server returned no message body")
	}

	parsed, err := Parse(body)
	if err != nil {
		return email, err
	}
	email.BodyText = parsed.BodyText
	email.BodyHTML = parsed.BodyHTML
	if email.From == "" {
		email.From = parsed.From
	}
	if email.Subject == "" {
		email.Subject = parsed.Subject
	}
	if email.Date.IsZero() {
		email.Date = parsed.Date
	}
	return email, nil
}

func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.TrimSpace(addr)
}
