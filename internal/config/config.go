package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSender    = "myworkday.com"
	DefaultATSDomain = "@myworkday.com"
	DefaultLimit     = 5
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Database struct {
		Driver       string `yaml:"driver"` // sqlite, mysql, postgres
		DSN          string `yaml:"dsn"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
	} `yaml:"database"`
	IMAP struct {
		Host              string `yaml:"host"`
		Email             string `yaml:"email"`
		Password          string `yaml:"password"`
		UseTLS            bool   `yaml:"use_tls"`
		Provider          string `yaml:"provider"`
		Folder            string `yaml:"folder"`
		OAuthClientID     string `yaml:"oauth_client_id"`
		OAuthClientSecret string `yaml:"oauth_client_secret"`
		OAuthTokenFile    string `yaml:"oauth_token_file"`
	} `yaml:"imap"`
	Scan struct {
		Sender    string `yaml:"sender"`
		Limit     int    `yaml:"limit"`
		Since     string `yaml:"since"` // YYYY-MM-DD or RFC3339
		ATSDomain string `yaml:"ats_domain"`
	} `yaml:"scan"`
	Export struct {
		File string `yaml:"file"`
		CSV  string `yaml:"csv"`
	} `yaml:"export"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load 先加载 env 文件，再读取 YAML 并替换环境变量；配置文件不存在时只使用默认值和环境变量
func Load(path string, envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	var cfg Config

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			content := expandEnvVars(string(b))
			if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
				return nil, fmt.Errorf("parse yaml: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// 环境变量优先于配置文件
func (c *Config) applyEnv() error {
	if v := os.Getenv("GMAIL_USERNAME"); v != "" {
		c.IMAP.Email = v
	}
	if v := os.Getenv("GMAIL_PASSWORD"); v != "" {
		c.IMAP.Password = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("SCAN_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SCAN_LIMIT: %w", err)
		}
		c.Scan.Limit = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "apptracker.db"
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 5
	}

	if c.IMAP.Provider == "" && c.IMAP.Email != "" {
		c.IMAP.Provider = inferEmailProvider(c.IMAP.Email)
	}
	if c.IMAP.Host == "" && c.IMAP.Email != "" {
		c.IMAP.Host = inferIMAPHost(c.IMAP.Email)
		if c.IMAP.Host != "" {
			c.IMAP.UseTLS = true
		}
	}
	if c.IMAP.Folder == "" {
		c.IMAP.Folder = "INBOX"
	}

	if c.Scan.Sender == "" {
		c.Scan.Sender = DefaultSender
	}
	if c.Scan.Limit <= 0 {
		c.Scan.Limit = DefaultLimit
	}
	if c.Scan.ATSDomain == "" {
		c.Scan.ATSDomain = DefaultATSDomain
	}

	if c.Export.File == "" {
		c.Export.File = "applications.json"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateServer 校验 API 服务所需的配置
func (c *Config) ValidateServer() error {
	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver)
	}
	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	return nil
}

// ValidateScan 校验邮件扫描所需的配置
func (c *Config) ValidateScan() error {
	if c.IMAP.Email == "" {
		return fmt.Errorf("imap.email is required (or set GMAIL_USERNAME)")
	}
	if c.IMAP.Host == "" {
		return fmt.Errorf("imap.host could not be inferred from %s, set it explicitly", c.IMAP.Email)
	}
	if c.IMAP.Password == "" && c.IMAP.OAuthTokenFile == "" {
		return fmt.Errorf("imap.password or imap.oauth_token_file is required (or set GMAIL_PASSWORD)")
	}
	if c.IMAP.OAuthTokenFile != "" && c.IMAP.OAuthClientID == "" {
		return fmt.Errorf("imap.oauth_client_id is required when using an oauth token file")
	}
	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	return nil
}

// expandEnvVars 替换 ${VAR_NAME} 格式的环境变量
func expandEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1]
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return match
	})
}

// inferEmailProvider 根据邮箱地址推断提供商
func inferEmailProvider(email string) string {
	email = strings.ToLower(email)

	if strings.Contains(email, "@gmail.com") || strings.Contains(email, "@googlemail.com") {
		return "gmail"
	}
	if strings.Contains(email, "@outlook.com") || strings.Contains(email, "@hotmail.com") || strings.Contains(email, "@live.com") {
		return "outlook"
	}
	if strings.Contains(email, "@yahoo.com") || strings.Contains(email, "@yahoo.co.") {
		return "yahoo"
	}
	if strings.Contains(email, "@qq.com") || strings.Contains(email, "@163.com") || strings.Contains(email, "@126.com") {
		return "chinese"
	}

	return "custom"
}

// inferIMAPHost 根据邮箱地址推断IMAP主机
func inferIMAPHost(email string) string {
	switch inferEmailProvider(email) {
	case "gmail":
		return "imap.gmail.com:993"
	case "outlook":
		return "outlook.office365.com:993"
	case "yahoo":
		return "imap.mail.yahoo.com:993"
	}

	email = strings.ToLower(email)
	switch {
	case strings.HasSuffix(email, "@qq.com"):
		return "imap.qq.com:993"
	case strings.HasSuffix(email, "@163.com"):
		return "imap.163.com:993"
	case strings.HasSuffix(email, "@126.com"):
		return "imap.126.com:993"
	}
	return ""
}

// ParseDateLoose 解析 YYYY-MM-DD 或 RFC3339，失败时返回默认值
func ParseDateLoose(s string, def time.Time) time.Time {
	if s == "" {
		return def
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return def
}
