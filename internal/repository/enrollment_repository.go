// internal/repository/enrollment_repository.go
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

type EnrollmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, enrollment *model.Enrollment) error
	// FindOwned は指定ユーザーが所有する受講登録を LessonProgress 付きで取得します
	FindOwned(ctx context.Context, db *gorm.DB, userID, enrollmentID uuid.UUID) (*model.Enrollment, error)
	// FindOwnedDetail は Course / Course.Lessons / LessonProgress をすべて解決して取得します
	FindOwnedDetail(ctx context.Context, db *gorm.DB, userID, enrollmentID uuid.UUID) (*model.Enrollment, error)
	// FindByID は所有者を問わず取得します (カタログ変更の伝搬用)
	FindByID(ctx context.Context, db *gorm.DB, enrollmentID uuid.UUID) (*model.Enrollment, error)
	FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.Enrollment, error)
	FindByUserAndCourse(ctx context.Context, db *gorm.DB, userID, courseID uuid.UUID) (*model.Enrollment, error)
	FindIDsByCourse(ctx context.Context, db *gorm.DB, courseID uuid.UUID) ([]uuid.UUID, error)
	// UpdateDerived は再計算済みの progress/status を保存します
	UpdateDerived(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, progress int, status model.EnrollmentStatus) error
	// UpdateProgress は進捗率の手動上書きです。status には触れません
	UpdateProgress(ctx context.Context, tx *gorm.DB, userID, enrollmentID uuid.UUID, progress int) error
	Delete(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) error
	DeleteByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error
}

type gormEnrollmentRepository struct{}

func NewGormEnrollmentRepository() EnrollmentRepository {
	return &gormEnrollmentRepository{}
}

func (r *gormEnrollmentRepository) Create(ctx context.Context, tx *gorm.DB, enrollment *model.Enrollment) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Omit("Course", "LessonProgress").Create(enrollment)
	if result.Error != nil {
		// (user_id, course_id) の複合一意制約違反 (レースコンディション時)
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return model.ErrConflict
		}
		logger.Error("Error creating enrollment in DB",
			"error", result.Error,
			"user_id", enrollment.UserID.String(),
			"course_id", enrollment.CourseID.String(),
		)
		return fmt.Errorf("gormEnrollmentRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormEnrollmentRepository) FindOwned(ctx context.Context, db *gorm.DB, userID, enrollmentID uuid.UUID) (*model.Enrollment, error) {
	logger := middleware.GetLogger(ctx)
	var enrollment model.Enrollment
	result := db.WithContext(ctx).
		Preload("LessonProgress", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("user_id = ? AND enrollment_id = ?", userID, enrollmentID).
		First(&enrollment)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding owned enrollment in DB",
			"error", result.Error,
			"user_id", userID.String(),
			"enrollment_id", enrollmentID.String(),
		)
		return nil, fmt.Errorf("gormEnrollmentRepository.FindOwned: %w", result.Error)
	}
	return &enrollment, nil
}

func (r *gormEnrollmentRepository) FindOwnedDetail(ctx context.Context, db *gorm.DB, userID, enrollmentID uuid.UUID) (*model.Enrollment, error) {
	logger := middleware.GetLogger(ctx)
	var enrollment model.Enrollment
	result := db.WithContext(ctx).
		Preload("Course").
		Preload("Course.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("LessonProgress", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("user_id = ? AND enrollment_id = ?", userID, enrollmentID).
		First(&enrollment)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding enrollment detail in DB",
			"error", result.Error,
			"user_id", userID.String(),
			"enrollment_id", enrollmentID.String(),
		)
		return nil, fmt.Errorf("gormEnrollmentRepository.FindOwnedDetail: %w", result.Error)
	}
	return &enrollment, nil
}

func (r *gormEnrollmentRepository) FindByID(ctx context.Context, db *gorm.DB, enrollmentID uuid.UUID) (*model.Enrollment, error) {
	logger := middleware.GetLogger(ctx)
	var enrollment model.Enrollment
	result := db.WithContext(ctx).
		Preload("LessonProgress", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("enrollment_id = ?", enrollmentID).
		First(&enrollment)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding enrollment by ID in DB",
			"error", result.Error,
			"enrollment_id", enrollmentID.String(),
		)
		return nil, fmt.Errorf("gormEnrollmentRepository.FindByID: %w", result.Error)
	}
	return &enrollment, nil
}

func (r *gormEnrollmentRepository) FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.Enrollment, error) {
	logger := middleware.GetLogger(ctx)
	var enrollments []*model.Enrollment
	result := db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&enrollments)
	if result.Error != nil {
		logger.Error("Error finding enrollments by user in DB",
			"error", result.Error,
			"user_id", userID.String(),
		)
		return nil, fmt.Errorf("gormEnrollmentRepository.FindByUser: %w", result.Error)
	}
	return enrollments, nil
}

func (r *gormEnrollmentRepository) FindByUserAndCourse(ctx context.Context, db *gorm.DB, userID, courseID uuid.UUID) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	result := db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormEnrollmentRepository.FindByUserAndCourse: %w", result.Error)
	}
	return &enrollment, nil
}

func (r *gormEnrollmentRepository) FindIDsByCourse(ctx context.Context, db *gorm.DB, courseID uuid.UUID) ([]uuid.UUID, error) {
	logger := middleware.GetLogger(ctx)
	var ids []uuid.UUID
	result := db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Pluck("enrollment_id", &ids)
	if result.Error != nil {
		logger.Error("Error listing enrollment IDs by course in DB",
			"error", result.Error,
			"course_id", courseID.String(),
		)
		return nil, fmt.Errorf("gormEnrollmentRepository.FindIDsByCourse: %w", result.Error)
	}
	return ids, nil
}

func (r *gormEnrollmentRepository) UpdateDerived(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, progress int, status model.EnrollmentStatus) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("enrollment_id = ?", enrollmentID).
		Updates(map[string]interface{}{
			"progress": progress,
			"status":   status,
		})
	if result.Error != nil {
		logger.Error("Error updating derived enrollment fields in DB",
			"error", result.Error,
			"enrollment_id", enrollmentID.String(),
		)
		return fmt.Errorf("gormEnrollmentRepository.UpdateDerived: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormEnrollmentRepository) UpdateProgress(ctx context.Context, tx *gorm.DB, userID, enrollmentID uuid.UUID, progress int) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("user_id = ? AND enrollment_id = ?", userID, enrollmentID).
		Update("progress", progress)
	if result.Error != nil {
		logger.Error("Error updating enrollment progress in DB",
			"error", result.Error,
			"user_id", userID.String(),
			"enrollment_id", enrollmentID.String(),
		)
		return fmt.Errorf("gormEnrollmentRepository.UpdateProgress: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormEnrollmentRepository) Delete(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Where("enrollment_id = ?", enrollmentID).Delete(&model.Enrollment{})
	if result.Error != nil {
		logger.Error("Error deleting enrollment in DB",
			"error", result.Error,
			"enrollment_id", enrollmentID.String(),
		)
		return fmt.Errorf("gormEnrollmentRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormEnrollmentRepository) DeleteByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Where("course_id = ?", courseID).Delete(&model.Enrollment{})
	if result.Error != nil {
		logger.Error("Error deleting enrollments by course in DB",
			"error", result.Error,
			"course_id", courseID.String(),
		)
		return fmt.Errorf("gormEnrollmentRepository.DeleteByCourse: %w", result.Error)
	}
	return nil
}
