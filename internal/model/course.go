// internal/model/course.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Course は講座を表します
type Course struct {
	CourseID    uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"course_id"`
	Title       string                      `gorm:"not null" json:"title"`
	Description string                      `gorm:"not null" json:"description"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	// 受講登録数の非正規化カウンタ。登録/解除と同一トランザクションで更新する。
	EnrollmentsCount int       `gorm:"not null;default:0" json:"enrollments_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// 関連 (Preload用)
	Lessons []Lesson `gorm:"foreignKey:CourseID;references:CourseID" json:"lessons,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// Lesson は講座内のレッスンを表します。レッスン自体は完了状態を持たず、
// 完了は受講登録ごとに LessonProgress で管理します。
type Lesson struct {
	LessonID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"lesson_id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Title     string    `gorm:"not null" json:"title"`
	Position  int       `gorm:"not null;default:0" json:"position"` // 講座内の表示順
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// 講座作成リクエストDTO
type CreateCourseRequest struct {
	Title       string                `json:"title" validate:"required,min=1,max=200"`
	Description string                `json:"description" validate:"required"`
	Tags        []string              `json:"tags" validate:"omitempty,dive,min=1"`
	Lessons     []CreateLessonRequest `json:"lessons" validate:"omitempty,dive"`
}

// レッスン追加リクエストDTO
type CreateLessonRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}
