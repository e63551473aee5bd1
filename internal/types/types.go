package types

import "time"

// 邮件分类结果状态，与 models.Status 是两套独立的枚举
type Status string

const (
	StatusApplied  Status = "Applied"  // 已投递确认
	StatusAccepted Status = "Accepted" // 面试邀请/录用
	StatusRejected Status = "Rejected" // 被拒绝
)

type Email struct {
	UID      uint32
	From     string
	Subject  string
	Date     time.Time
	BodyText string
	BodyHTML string
	Folder   string
}

// 写入结果文件的一条记录，未分类时不输出 status
type ClassifiedEmail struct {
	Company string `json:"company"`
	Status  Status `json:"status,omitempty"`
	Date    string `json:"date"`
}

// 结果文件的顶层结构
type Report struct {
	Applications []ClassifiedEmail `json:"applications"`
}
