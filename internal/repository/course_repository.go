// internal/repository/course_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"go_5_course_keep/internal/middleware"
	"go_5_course_keep/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CourseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, course *model.Course) error
	FindByID(ctx context.Context, db *gorm.DB, courseID uuid.UUID, withLessons bool) (*model.Course, error)
	FindAll(ctx context.Context, db *gorm.DB) ([]*model.Course, error)
	Delete(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error
	// AddEnrollmentsCount は enrollments_count をSQL式で加算します。
	// delta が負の場合はカウンタが0を下回らないよう更新対象を絞ります。
	AddEnrollmentsCount(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, delta int) error
}

type gormCourseRepository struct{}

func NewGormCourseRepository() CourseRepository {
	return &gormCourseRepository{}
}

func (r *gormCourseRepository) Create(ctx context.Context, tx *gorm.DB, course *model.Course) error {
	logger := middleware.GetLogger(ctx)
	// 関連のLessonsはサービス層で個別に作成するため、ここでは本体のみ保存する
	result := tx.WithContext(ctx).Omit("Lessons").Create(course)
	if result.Error != nil {
		logger.Error("Error creating course in DB",
			"error", result.Error,
			"title", course.Title,
		)
		return fmt.Errorf("gormCourseRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormCourseRepository) FindByID(ctx context.Context, db *gorm.DB, courseID uuid.UUID, withLessons bool) (*model.Course, error) {
	logger := middleware.GetLogger(ctx)
	var course model.Course
	query := db.WithContext(ctx)
	if withLessons {
		query = query.Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
	}
	result := query.Where("course_id = ?", courseID).First(&course)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding course by ID in DB",
			"error", result.Error,
			"course_id", courseID.String(),
		)
		return nil, fmt.Errorf("gormCourseRepository.FindByID: %w", result.Error)
	}
	return &course, nil
}

func (r *gormCourseRepository) FindAll(ctx context.Context, db *gorm.DB) ([]*model.Course, error) {
	logger := middleware.GetLogger(ctx)
	var courses []*model.Course
	result := db.WithContext(ctx).
		Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("created_at DESC").
		Find(&courses)
	if result.Error != nil {
		logger.Error("Error finding all courses in DB", "error", result.Error)
		return nil, fmt.Errorf("gormCourseRepository.FindAll: %w", result.Error)
	}
	return courses, nil
}

func (r *gormCourseRepository) Delete(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Where("course_id = ?", courseID).Delete(&model.Course{})
	if result.Error != nil {
		logger.Error("Error deleting course in DB",
			"error", result.Error,
			"course_id", courseID.String(),
		)
		return fmt.Errorf("gormCourseRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormCourseRepository) AddEnrollmentsCount(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, delta int) error {
	logger := middleware.GetLogger(ctx)
	query := tx.WithContext(ctx).Model(&model.Course{}).Where("course_id = ?", courseID)
	if delta < 0 {
		// カウンタは0が下限。既に0の場合は更新しない (エラーにもしない)
		query = query.Where("enrollments_count >= ?", -delta)
	}
	result := query.UpdateColumn("enrollments_count", gorm.Expr("enrollments_count + ?", delta))
	if result.Error != nil {
		logger.Error("Error updating enrollments_count in DB",
			"error", result.Error,
			"course_id", courseID.String(),
			"delta", delta,
		)
		return fmt.Errorf("gormCourseRepository.AddEnrollmentsCount: %w", result.Error)
	}
	return nil
}
