package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-sasl"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// TokenProvider 提供 OAuth2 access token
type TokenProvider interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// FileTokenSource 从本地 token 文件读取 token，过期时自动刷新并写回
type FileTokenSource struct {
	path   string
	config *oauth2.Config
}

func NewFileTokenSource(path, clientID, clientSecret, provider string) *FileTokenSource {
	endpoint := endpoints.Google
	scopes := []string{"https://mail.google.com/"}
	if provider == "outlook" {
		endpoint = endpoints.Microsoft
		scopes = []string{"https://outlook.office.com/IMAP.AccessAsUser.All", "offline_access"}
	}

	return &FileTokenSource{
		path: path,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
	}
}

func (f *FileTokenSource) Token(ctx context.Context) (*oauth2.Token, error) {
	tok, err := tokenFromFile(f.path)
	if err != nil {
		return nil, err
	}

	fresh, err := f.config.TokenSource(ctx, tok).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh oauth token: %w", err)
	}

	if fresh.AccessToken != tok.AccessToken {
		if err := saveToken(f.path, fresh); err != nil {
			return nil, err
		}
	}
	return fresh, nil
}

// tokenFromFile 读取本地 token 文件
func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}
	return tok, nil
}

// saveToken 保存刷新后的 token
func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("encode token file: %w", err)
	}
	return nil
}

func authenticate(ctx context.Context, c *client.Client, opts Options) error {
	tok, err := opts.Token.Token(ctx)
	if err != nil {
		return err
	}

	host, port := hostOnly(opts.Host), 993
	if _, p, err := net.SplitHostPort(opts.Host); err == nil {
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}

	return c.Authenticate(sasl.NewOAuthBearerClient(&sasl.OAuthBearerOptions{
		Username: opts.Username,
		Token:    tok.AccessToken,
		Host:     host,
		Port:     port,
	}))
}
