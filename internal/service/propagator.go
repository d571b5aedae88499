// internal/service/propagator.go
package service

import (
	"context"
	"errors"

	"go_5_course_keep/internal/middleware"
	"go_5_course_keep/internal/model"
	"go_5_course_keep/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PropagationFailure は伝搬に失敗した受講登録1件の記録です
type PropagationFailure struct {
	EnrollmentID uuid.UUID `json:"enrollment_id"`
	Reason       string    `json:"reason"`
}

// PropagationReport はカタログ変更のファンアウト結果の集計です。
// 件数が未知数のため全体トランザクションにはせず、受講登録ごとの
// 成否を記録して部分的な完了を許容します。
type PropagationReport struct {
	Total    int                  `json:"total"`
	Failures []PropagationFailure `json:"failures,omitempty"`
}

func (r *PropagationReport) Ok() bool {
	return len(r.Failures) == 0
}

// CatalogPropagator は講座のレッスン構成変更を既存の全受講登録に反映し、
// LessonProgress の集合を講座の現行レッスン集合と常に一致させます。
type CatalogPropagator struct {
	db         *gorm.DB
	enrollRepo repository.EnrollmentRepository
	progRepo   repository.ProgressRepository
	locks      *EnrollmentLocker
}

func NewCatalogPropagator(db *gorm.DB, enrollRepo repository.EnrollmentRepository, progRepo repository.ProgressRepository, locks *EnrollmentLocker) *CatalogPropagator {
	return &CatalogPropagator{
		db:         db,
		enrollRepo: enrollRepo,
		progRepo:   progRepo,
		locks:      locks,
	}
}

// LessonAdded は追加されたレッスンの LessonProgress を講座の全受講登録に
// 作成し、それぞれの進捗を再計算します。将来の登録だけでなく既存の
// 全登録が対象です (追加レッスンは既存受講者の進捗率を下げうる)。
func (p *CatalogPropagator) LessonAdded(ctx context.Context, lesson *model.Lesson) (*PropagationReport, error) {
	logger := middleware.GetLogger(ctx).With("course_id", lesson.CourseID, "lesson_id", lesson.LessonID)

	ids, err := p.enrollRepo.FindIDsByCourse(ctx, p.db, lesson.CourseID)
	if err != nil {
		logger.Error("Error listing enrollments for propagation", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "レッスン追加の反映対象の取得に失敗しました。", "", err)
	}

	report := &PropagationReport{Total: len(ids)}
	for _, enrollmentID := range ids {
		err := p.applyToEnrollment(ctx, enrollmentID, func(tx *gorm.DB, enrollment *model.Enrollment) error {
			// 既に存在する場合は作成しない (再実行時の冪等性)
			for i := range enrollment.LessonProgress {
				if enrollment.LessonProgress[i].LessonID == lesson.LessonID {
					return nil
				}
			}
			lp := &model.LessonProgress{
				EnrollmentID: enrollmentID,
				LessonID:     lesson.LessonID,
				Title:        lesson.Title,
				Status:       model.LessonNotStarted,
			}
			if err := p.progRepo.Create(ctx, tx, lp); err != nil {
				return err
			}
			enrollment.LessonProgress = append(enrollment.LessonProgress, *lp)
			return nil
		})
		if err != nil {
			logger.Warn("Failed to propagate lesson addition to enrollment",
				"enrollment_id", enrollmentID, "error", err)
			report.Failures = append(report.Failures, PropagationFailure{
				EnrollmentID: enrollmentID,
				Reason:       err.Error(),
			})
		}
	}

	if !report.Ok() {
		logger.Warn("Lesson addition propagated partially",
			"total", report.Total, "failed", len(report.Failures))
	} else {
		logger.Info("Lesson addition propagated", "total", report.Total)
	}
	return report, nil
}

// LessonRemoved は削除されたレッスンの LessonProgress を講座の全受講登録から
// 取り除き、それぞれの進捗を再計算します。該当レコードの不在はエラーに
// しません (冪等)。
func (p *CatalogPropagator) LessonRemoved(ctx context.Context, courseID, lessonID uuid.UUID) (*PropagationReport, error) {
	logger := middleware.GetLogger(ctx).With("course_id", courseID, "lesson_id", lessonID)

	ids, err := p.enrollRepo.FindIDsByCourse(ctx, p.db, courseID)
	if err != nil {
		logger.Error("Error listing enrollments for propagation", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "レッスン削除の反映対象の取得に失敗しました。", "", err)
	}

	report := &PropagationReport{Total: len(ids)}
	for _, enrollmentID := range ids {
		err := p.applyToEnrollment(ctx, enrollmentID, func(tx *gorm.DB, enrollment *model.Enrollment) error {
			if _, err := p.progRepo.DeleteByEnrollmentAndLesson(ctx, tx, enrollmentID, lessonID); err != nil {
				return err
			}
			remaining := enrollment.LessonProgress[:0]
			for _, lp := range enrollment.LessonProgress {
				if lp.LessonID != lessonID {
					remaining = append(remaining, lp)
				}
			}
			enrollment.LessonProgress = remaining
			return nil
		})
		if err != nil {
			logger.Warn("Failed to propagate lesson removal to enrollment",
				"enrollment_id", enrollmentID, "error", err)
			report.Failures = append(report.Failures, PropagationFailure{
				EnrollmentID: enrollmentID,
				Reason:       err.Error(),
			})
		}
	}

	if !report.Ok() {
		logger.Warn("Lesson removal propagated partially",
			"total", report.Total, "failed", len(report.Failures))
	} else {
		logger.Info("Lesson removal propagated", "total", report.Total)
	}
	return report, nil
}

// applyToEnrollment は1件の受講登録に対する変更を、受講登録単位のロックと
// 独立したトランザクションの中で実行し、最後に進捗を再計算して保存します。
// 1件の失敗は他の受講登録の更新に影響しません。
func (p *CatalogPropagator) applyToEnrollment(ctx context.Context, enrollmentID uuid.UUID, mutate func(tx *gorm.DB, enrollment *model.Enrollment) error) error {
	unlock := p.locks.Lock(enrollmentID)
	defer unlock()

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enrollment, err := p.enrollRepo.FindByID(ctx, tx, enrollmentID)
		if err != nil {
			// 伝搬中に受講解除された登録はスキップする
			if errors.Is(err, model.ErrNotFound) {
				return nil
			}
			return err
		}

		if err := mutate(tx, enrollment); err != nil {
			return err
		}

		progress, status := model.DeriveProgress(enrollment.LessonProgress)
		return p.enrollRepo.UpdateDerived(ctx, tx, enrollmentID, progress, status)
	})
}
