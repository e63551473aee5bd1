package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/YKarmar/ApplicationTracker/internal/models"
)

// ApplicationInput 创建或整体更新时的字段
type ApplicationInput struct {
	Company        string        `json:"company"`
	Position       string        `json:"position"`
	Status         models.Status `json:"status"`
	MasterResumeID *uint         `json:"master_resume"`
	TailoredResume string        `json:"tailored_resume"`
	Notes          string        `json:"notes"`
	DateApplied    *time.Time    `json:"date_applied"`
}

// ApplicationPatch 部分更新，nil 字段保持不变
type ApplicationPatch struct {
	Company        *string        `json:"company"`
	Position       *string        `json:"position"`
	Status         *models.Status `json:"status"`
	TailoredResume *string        `json:"tailored_resume"`
	Notes          *string        `json:"notes"`
	DateApplied    *time.Time     `json:"date_applied"`
}

func (s *Store) ListApplications(ctx context.Context) ([]models.Application, error) {
	var apps []models.Application
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&apps).Error; err != nil {
		s.logger.Error("failed to list applications", zap.Error(err))
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

func (s *Store) GetApplication(ctx context.Context, id uint) (*models.Application, error) {
	var app models.Application
	if err := s.db.WithContext(ctx).First(&app, id).Error; err != nil {
		return nil, notFound(err, "application", id)
	}
	return &app, nil
}

func (s *Store) CreateApplication(ctx context.Context, in ApplicationInput) (*models.Application, error) {
	app := models.Application{
		Company:        in.Company,
		Position:       in.Position,
		Status:         in.Status,
		MasterResumeID: in.MasterResumeID,
		TailoredResume: in.TailoredResume,
		Notes:          in.Notes,
	}
	if in.DateApplied != nil {
		app.DateApplied = *in.DateApplied
	}

	if in.MasterResumeID != nil {
		if err := resumeExists(s.db.WithContext(ctx), *in.MasterResumeID); err != nil {
			return nil, fmt.Errorf("create application: %w", err)
		}
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&app).Error; err != nil {
		if !models.IsValidation(err) {
			s.logger.Error("failed to create application", zap.String("company", in.Company), zap.Error(err))
		}
		return nil, fmt.Errorf("create application: %w", err)
	}

	s.logger.Info("application created",
		zap.Uint("id", app.ID),
		zap.String("company", app.Company),
		zap.String("status", string(app.Status)),
	)
	return &app, nil
}

// UpdateApplication 整体替换可编辑字段，不会重新复制主简历
func (s *Store) UpdateApplication(ctx context.Context, id uint, in ApplicationInput) (*models.Application, error) {
	return s.modifyApplication(ctx, id, func(tx *gorm.DB, app *models.Application) error {
		if in.MasterResumeID != nil {
			if err := resumeExists(tx, *in.MasterResumeID); err != nil {
				return err
			}
		}
		app.Company = in.Company
		app.Position = in.Position
		app.Status = in.Status
		app.MasterResumeID = in.MasterResumeID
		app.TailoredResume = in.TailoredResume
		app.Notes = in.Notes
		if in.DateApplied != nil {
			app.DateApplied = *in.DateApplied
		}
		return nil
	})
}

// PatchApplication 只更新传入的字段
func (s *Store) PatchApplication(ctx context.Context, id uint, p ApplicationPatch) (*models.Application, error) {
	return s.modifyApplication(ctx, id, func(_ *gorm.DB, app *models.Application) error {
		if p.Company != nil {
			app.Company = *p.Company
		}
		if p.Position != nil {
			app.Position = *p.Position
		}
		if p.Status != nil {
			app.Status = *p.Status
		}
		if p.TailoredResume != nil {
			app.TailoredResume = *p.TailoredResume
		}
		if p.Notes != nil {
			app.Notes = *p.Notes
		}
		if p.DateApplied != nil {
			app.DateApplied = *p.DateApplied
		}
		return nil
	})
}

// MoveApplication 只修改状态
func (s *Store) MoveApplication(ctx context.Context, id uint, status models.Status) (*models.Application, error) {
	if !status.Valid() {
		return nil, &models.ValidationError{Field: "status", Reason: fmt.Sprintf("%q is not a valid choice", status)}
	}
	return s.PatchApplication(ctx, id, ApplicationPatch{Status: &status})
}

// AttachResume 关联或取消关联主简历，不改动已有的定制简历
func (s *Store) AttachResume(ctx context.Context, id uint, resumeID *uint) (*models.Application, error) {
	return s.modifyApplication(ctx, id, func(tx *gorm.DB, app *models.Application) error {
		if resumeID != nil {
			if err := resumeExists(tx, *resumeID); err != nil {
				return err
			}
		}
		app.MasterResumeID = resumeID
		return nil
	})
}

func (s *Store) DeleteApplication(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Application{}, id)
	if res.Error != nil {
		s.logger.Error("failed to delete application", zap.Uint("id", id), zap.Error(res.Error))
		return fmt.Errorf("delete application: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("application %d: %w", id, ErrNotFound)
	}

	s.logger.Info("application deleted", zap.Uint("id", id))
	return nil
}

// 在事务中读取、修改并保存一条记录；整行更新，不走 Save 的插入回退，避免再次触发 BeforeCreate
func (s *Store) modifyApplication(ctx context.Context, id uint, apply func(tx *gorm.DB, app *models.Application) error) (*models.Application, error) {
	var app models.Application
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&app, id).Error; err != nil {
			return notFound(err, "application", id)
		}
		if err := apply(tx, &app); err != nil {
			return err
		}
		return tx.Model(&app).Select("*").Omit(clause.Associations).Updates(&app).Error
	})
	if err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}

	s.logger.Info("application updated", zap.Uint("id", app.ID), zap.String("status", string(app.Status)))
	return &app, nil
}

func resumeExists(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&models.MasterResume{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("check resume: %w", err)
	}
	if count == 0 {
		return &models.ValidationError{Field: "master_resume", Reason: fmt.Sprintf("resume %d does not exist", id)}
	}
	return nil
}
