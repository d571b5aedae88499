// internal/repository/progress_repository.go
package repository

import (
	"context"
	"fmt"

	"go_5_course_keep/internal/middleware"
	"go_5_course_keep/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProgressRepository は受講登録ごとのレッスン完了記録 (LessonProgress) を扱います
type ProgressRepository interface {
	Create(ctx context.Context, tx *gorm.DB, progress *model.LessonProgress) error
	// UpdateStatus は1件の完了状態を更新します。更新行数を返すため、
	// 呼び出し元で存在確認に利用できます
	UpdateStatus(ctx context.Context, tx *gorm.DB, enrollmentID, lessonID uuid.UUID, status model.LessonStatus) (int64, error)
	// DeleteByEnrollmentAndLesson は該当レコードが無くてもエラーにしません
	// (レッスン削除伝搬の冪等性のため)。削除行数を返します
	DeleteByEnrollmentAndLesson(ctx context.Context, tx *gorm.DB, enrollmentID, lessonID uuid.UUID) (int64, error)
	DeleteByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) error
	DeleteByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error
}

type gormProgressRepository struct{}

func NewGormProgressRepository() ProgressRepository {
	return &gormProgressRepository{}
}

func (r *gormProgressRepository) Create(ctx context.Context, tx *gorm.DB, progress *model.LessonProgress) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(progress)
	if result.Error != nil {
		logger.Error("Error creating lesson progress in DB",
			"error", result.Error,
			"enrollment_id", progress.EnrollmentID.String(),
			"lesson_id", progress.LessonID.String(),
		)
		return fmt.Errorf("gormProgressRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormProgressRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, enrollmentID, lessonID uuid.UUID, status model.LessonStatus) (int64, error) {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).
		Model(&model.LessonProgress{}).
		Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID).
		Update("status", status)
	if result.Error != nil {
		logger.Error("Error updating lesson progress status in DB",
			"error", result.Error,
			"enrollment_id", enrollmentID.String(),
			"lesson_id", lessonID.String(),
		)
		return 0, fmt.Errorf("gormProgressRepository.UpdateStatus: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormProgressRepository) DeleteByEnrollmentAndLesson(ctx context.Context, tx *gorm.DB, enrollmentID, lessonID uuid.UUID) (int64, error) {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).
		Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID).
		Delete(&model.LessonProgress{})
	if result.Error != nil {
		logger.Error("Error deleting lesson progress in DB",
			"error", result.Error,
			"enrollment_id", enrollmentID.String(),
			"lesson_id", lessonID.String(),
		)
		return 0, fmt.Errorf("gormProgressRepository.DeleteByEnrollmentAndLesson: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormProgressRepository) DeleteByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Delete(&model.LessonProgress{})
	if result.Error != nil {
		logger.Error("Error deleting lesson progress by enrollment in DB",
			"error", result.Error,
			"enrollment_id", enrollmentID.String(),
		)
		return fmt.Errorf("gormProgressRepository.DeleteByEnrollment: %w", result.Error)
	}
	return nil
}

func (r *gormProgressRepository) DeleteByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	// 講座削除のカスケード用。講座配下の全受講登録のレコードをまとめて削除する
	subQuery := tx.Model(&model.Enrollment{}).Select("enrollment_id").Where("course_id = ?", courseID)
	result := tx.WithContext(ctx).
		Where("enrollment_id IN (?)", subQuery).
		Delete(&model.LessonProgress{})
	if result.Error != nil {
		logger.Error("Error deleting lesson progress by course in DB",
			"error", result.Error,
			"course_id", courseID.String(),
		)
		return fmt.Errorf("gormProgressRepository.DeleteByCourse: %w", result.Error)
	}
	return nil
}
