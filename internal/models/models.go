package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
)

// 投递记录状态，与邮件分类的 types.Status 互不转换
type Status string

const (
	StatusApplied     Status = "applied"
	StatusInterviewed Status = "interviewed"
	StatusSubmitted   Status = "submitted"
)

// Valid 判断状态是否属于固定枚举
func (s Status) Valid() bool {
	switch s {
	case StatusApplied, StatusInterviewed, StatusSubmitted:
		return true
	}
	return false
}

const maxShortText = 100

// ValidationError 表示字段校验失败
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// IsValidation 判断 err 是否为字段校验错误
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// MasterResume 可复用的简历模板
type MasterResume struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (MasterResume) TableName() string {
	return "master_resumes"
}

func (r *MasterResume) BeforeSave(tx *gorm.DB) error {
	r.Name = strings.TrimSpace(r.Name)
	return checkShortText("name", r.Name)
}

// Application 一条求职投递记录
type Application struct {
	ID             uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	Company        string        `gorm:"size:100;not null" json:"company"`
	Position       string        `gorm:"size:100;not null" json:"position"`
	Status         Status        `gorm:"size:100;not null;default:applied" json:"status"`
	MasterResumeID *uint         `gorm:"index" json:"master_resume"`
	MasterResume   *MasterResume `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	TailoredResume string        `gorm:"type:text" json:"tailored_resume"`
	Notes          string        `gorm:"type:text" json:"notes"`
	DateApplied    time.Time     `gorm:"not null" json:"date_applied"`
}

func (Application) TableName() string {
	return "applications"
}

func (a *Application) String() string {
	return fmt.Sprintf("%s - %s (%s)", a.Company, a.Position, a.Status)
}

// BeforeSave 每次保存前补默认状态并校验字段
func (a *Application) BeforeSave(tx *gorm.DB) error {
	if a.Status == "" {
		a.Status = StatusApplied
	}
	return a.Validate()
}

// BeforeCreate 只在首次保存时执行：补投递时间，并在定制简历为空时复制主简历内容
func (a *Application) BeforeCreate(tx *gorm.DB) error {
	if a.DateApplied.IsZero() {
		a.DateApplied = time.Now()
	}

	if a.MasterResumeID == nil || a.TailoredResume != "" {
		return nil
	}

	if a.MasterResume != nil && a.MasterResume.ID == *a.MasterResumeID {
		a.TailoredResume = a.MasterResume.Content
		return nil
	}

	var resume MasterResume
	err := tx.Session(&gorm.Session{NewDB: true}).First(&resume, *a.MasterResumeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &ValidationError{Field: "master_resume", Reason: fmt.Sprintf("resume %d does not exist", *a.MasterResumeID)}
	}
	if err != nil {
		return fmt.Errorf("load master resume: %w", err)
	}
	a.TailoredResume = resume.Content
	return nil
}

// Validate 校验必填字段、长度和状态枚举
func (a *Application) Validate() error {
	if err := checkShortText("company", a.Company); err != nil {
		return err
	}
	if err := checkShortText("position", a.Position); err != nil {
		return err
	}
	if !a.Status.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("%q is not a valid choice", a.Status)}
	}
	return nil
}

func checkShortText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Reason: "this field is required"}
	}
	if utf8.RuneCountInString(value) > maxShortText {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("ensure this field has no more than %d characters", maxShortText)}
	}
	return nil
}
