// internal/model/enrollment.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type EnrollmentStatus string

const (
	EnrollmentNotStarted EnrollmentStatus = "NOT_STARTED"
	EnrollmentInProgress EnrollmentStatus = "IN_PROGRESS"
	EnrollmentCompleted  EnrollmentStatus = "COMPLETED"
)

type LessonStatus string

const (
	LessonNotStarted LessonStatus = "NOT_STARTED"
	LessonCompleted  LessonStatus = "COMPLETED"
)

// Enrollment はユーザーと講座の受講関係を表します。
// (user_id, course_id) の組は常に一意です。
type Enrollment struct {
	EnrollmentID uuid.UUID        `gorm:"type:uuid;primaryKey" json:"enrollment_id"`
	UserID       uuid.UUID        `gorm:"type:uuid;not null;index:idx_user_course,unique" json:"user_id"`
	CourseID     uuid.UUID        `gorm:"type:uuid;not null;index:idx_user_course,unique" json:"course_id"`
	Progress     int              `gorm:"not null;default:0" json:"progress"`
	Status       EnrollmentStatus `gorm:"type:varchar(20);not null;default:NOT_STARTED" json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`

	// 関連 (Preload用)
	Course         *Course          `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
	LessonProgress []LessonProgress `gorm:"foreignKey:EnrollmentID;references:EnrollmentID" json:"lesson_progress,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// LessonProgress は受講登録ごとのレッスン完了状態を表します。
// lesson_id は対応する Lesson の識別子そのもので、結合キーを別途持ちません。
type LessonProgress struct {
	EnrollmentID uuid.UUID    `gorm:"type:uuid;primaryKey" json:"-"`
	LessonID     uuid.UUID    `gorm:"type:uuid;primaryKey" json:"lesson_id"`
	Title        string       `gorm:"not null" json:"title"` // 登録時点のレッスン名スナップショット
	Status       LessonStatus `gorm:"type:varchar(20);not null;default:NOT_STARTED" json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}

// 受講登録リクエストDTO
type EnrollRequest struct {
	CourseID string `json:"course_id" validate:"required,uuid"`
}

// 進捗の手動上書きリクエストDTO
type UpdateProgressRequest struct {
	Progress *int `json:"progress" validate:"required,min=0,max=100"`
}
