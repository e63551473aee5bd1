package scanner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/YKarmar/ApplicationTracker/internal/mailbox"
	"github.com/YKarmar/ApplicationTracker/internal/types"
)

// Source 提供待分类的邮件，由 *mailbox.Session 实现
type Source interface {
	Fetch(ctx context.Context, q mailbox.FetchQuery) ([]types.Email, error)
}

// Recorder 接收每条分类结果并持久化
type Recorder interface {
	Append(rec types.ClassifiedEmail) error
}

type Classifier interface {
	Classify(email types.Email) types.ClassifiedEmail
}

type Scanner struct {
	source     Source
	classifier Classifier
	recorder   Recorder
	logger     *zap.Logger
}

func New(source Source, classifier Classifier, recorder Recorder, logger *zap.Logger) *Scanner {
	return &Scanner{
		source:     source,
		classifier: classifier,
		recorder:   recorder,
		logger:     logger,
	}
}

// Run 顺序处理邮件，每处理一封就写一次结果；任何错误都会终止本次扫描
func (s *Scanner) Run(ctx context.Context, q mailbox.FetchQuery) ([]types.ClassifiedEmail, error) {
	emails, err := s.source.Fetch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch emails: %w", err)
	}

	s.logger.Info("fetched emails",
		zap.String("sender", q.Sender),
		zap.Int("count", len(emails)),
	)

	results := make([]types.ClassifiedEmail, 0, len(emails))
	for i, email := range emails {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		rec := s.classifier.Classify(email)
		if err := s.recorder.Append(rec); err != nil {
			return results, fmt.Errorf("record email %d: %w", i+1, err)
		}
		results = append(results, rec)

		s.logger.Info("processed email",
			zap.String("from", email.From),
			zap.String("subject", email.Subject),
			zap.String("company", rec.Company),
			zap.String("status", string(rec.Status)),
			zap.String("date", rec.Date),
		)
	}

	return results, nil
}
