package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/YKarmar/ApplicationTracker/internal/models"
)

// ResumePatch 部分更新主简历
type ResumePatch struct {
	Name    *string `json:"name"`
	Content *string `json:"content"`
}

func (s *Store) ListResumes(ctx context.Context) ([]models.MasterResume, error) {
	var resumes []models.MasterResume
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&resumes).Error; err != nil {
		s.logger.Error("failed to list resumes", zap.Error(err))
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	return resumes, nil
}

func (s *Store) GetResume(ctx context.Context, id uint) (*models.MasterResume, error) {
	var resume models.MasterResume
	if err := s.db.WithContext(ctx).First(&resume, id).Error; err != nil {
		return nil, notFound(err, "resume", id)
	}
	return &resume, nil
}

func (s *Store) CreateResume(ctx context.Context, name, content string) (*models.MasterResume, error) {
	resume := models.MasterResume{Name: name, Content: content}
	if err := s.db.WithContext(ctx).Create(&resume).Error; err != nil {
		return nil, fmt.Errorf("create resume: %w", err)
	}

	s.logger.Info("resume created", zap.Uint("id", resume.ID), zap.String("name", resume.Name))
	return &resume, nil
}

// UpdateResume 修改主简历；已复制到投递记录中的内容不受影响
func (s *Store) UpdateResume(ctx context.Context, id uint, p ResumePatch) (*models.MasterResume, error) {
	var resume models.MasterResume
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&resume, id).Error; err != nil {
			return notFound(err, "resume", id)
		}
		if p.Name != nil {
			resume.Name = *p.Name
		}
		if p.Content != nil {
			resume.Content = *p.Content
		}
		return tx.Model(&resume).Select("*").Updates(&resume).Error
	})
	if err != nil {
		return nil, fmt.Errorf("update resume: %w", err)
	}

	s.logger.Info("resume updated", zap.Uint("id", resume.ID))
	return &resume, nil
}

// CloneResume 复制一份主简历，name 为空时使用 "<原名> (copy)"
func (s *Store) CloneResume(ctx context.Context, id uint, name string) (*models.MasterResume, error) {
	src, err := s.GetResume(ctx, id)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = src.Name + " (copy)"
	}
	return s.CreateResume(ctx, name, src.Content)
}

// DeleteResume 删除主简历，引用它的投递记录改为未关联
func (s *Store) DeleteResume(ctx context.Context, id uint) error {
	var detached int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var resume models.MasterResume
		if err := tx.First(&resume, id).Error; err != nil {
			return notFound(err, "resume", id)
		}

		// UpdateColumn 不触发 Application 的钩子
		res := tx.Model(&models.Application{}).
			Where("master_resume_id = ?", id).
			UpdateColumn("master_resume_id", nil)
		if res.Error != nil {
			return fmt.Errorf("detach applications: %w", res.Error)
		}
		detached = res.RowsAffected

		return tx.Delete(&resume).Error
	})
	if err != nil {
		return fmt.Errorf("delete resume: %w", err)
	}

	s.logger.Info("resume deleted", zap.Uint("id", id), zap.Int64("detached_applications", detached))
	return nil
}
