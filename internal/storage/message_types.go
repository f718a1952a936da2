package storage

import "time"

// ResumeProcessedEvent 简历处理完成事件，发布到简历事件交换机
type ResumeProcessedEvent struct {
	ResumeID      string    `json:"resume_id"`
	UserID        string    `json:"user_id,omitempty"`
	FilePath      string    `json:"file_path"`
	ApplicantName string    `json:"applicant_name,omitempty"`
	JobCategory   string    `json:"job_category,omitempty"`
	Years         string    `json:"years,omitempty"`
	Language      string    `json:"language,omitempty"`
	TextMD5       string    `json:"text_md5,omitempty"`
	ProcessedAt   time.Time `json:"processed_at"`
}
