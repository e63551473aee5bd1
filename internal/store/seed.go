package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/YKarmar/ApplicationTracker/internal/models"
)

// 空库时写入的默认记录
func defaultApplications() []models.Application {
	return []models.Application{
		{Company: "Google", Position: "Software Engineer", Status: models.StatusApplied},
		{Company: "Microsoft", Position: "Data Analyst", Status: models.StatusInterviewed},
	}
}

// Seed 仅在 applications 表为空时写入默认记录，返回新建的条数
func (s *Store) Seed(ctx context.Context) (int, error) {
	created := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Application{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		apps := defaultApplications()
		if err := tx.Omit(clause.Associations).Create(&apps).Error; err != nil {
			return err
		}
		created = len(apps)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed applications: %w", err)
	}

	if created > 0 {
		s.logger.Info("default applications seeded", zap.Int("count", created))
	} else {
		s.logger.Debug("applications table not empty, skip seeding")
	}
	return created, nil
}
