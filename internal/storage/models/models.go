package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// 入库审计记录的向量写入状态
const (
	EmbeddingStatusPending = "PENDING"
	EmbeddingStatusStored  = "STORED"
	EmbeddingStatusFailed  = "FAILED"
)

// ResumeIngestion 简历入库审计表，每次process-resume调用写入一行
type ResumeIngestion struct {
	IngestionID     string         `gorm:"type:char(36);primaryKey"`
	ResumeID        string         `gorm:"type:char(36);not null;index:idx_ri_resume_id"`
	UserID          string         `gorm:"type:varchar(64);index:idx_ri_user_id"`
	FilePath        string         `gorm:"type:varchar(1024)"`
	TextMD5         string         `gorm:"type:char(32);index:idx_ri_text_md5"`
	ApplicantName   string         `gorm:"type:varchar(255)"`
	JobCategory     string         `gorm:"type:varchar(50)"`
	Years           string         `gorm:"type:varchar(20)"`
	Language        string         `gorm:"type:varchar(50)"`
	ExtractionJSON  datatypes.JSON `gorm:"type:json"` // LLM提取的原始结构化载荷
	EmbeddingStatus string         `gorm:"type:varchar(20);default:'PENDING';index:idx_ri_embedding_status"`
	CreatedAt       time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt       time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (ResumeIngestion) TableName() string {
	return "resume_ingestions"
}

// InterviewQuestionRecord 为简历生成的面试问题留存表
type InterviewQuestionRecord struct {
	QuestionID   uint64    `gorm:"primaryKey;autoIncrement"`
	ResumeID     string    `gorm:"type:char(36);not null;index:idx_iq_resume_id"`
	QuestionType string    `gorm:"type:varchar(20);not null"`
	Question     string    `gorm:"type:text;not null"`
	CreatedAt    time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

func (InterviewQuestionRecord) TableName() string {
	return "interview_questions"
}

// StructToJSON 将任意结构体序列化为datatypes.JSON
func StructToJSON(v interface{}) (datatypes.JSON, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}
