// internal/service/enrollment_service.go
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

// EnrollmentService は受講登録と進捗追跡の中核操作を提供します
type EnrollmentService interface {
	Enroll(ctx context.Context, userID, courseID uuid.UUID) (*model.Enrollment, error)
	Unenroll(ctx context.Context, userID, enrollmentID uuid.UUID) error
	GetEnrollments(ctx context.Context, userID uuid.UUID) ([]*model.Enrollment, error)
	GetEnrollmentDetail(ctx context.Context, userID, enrollmentID uuid.UUID) (*model.Enrollment, error)
	UpdateProgress(ctx context.Context, userID, enrollmentID uuid.UUID, progress int) error
	CompleteLesson(ctx context.Context, userID, enrollmentID, lessonID uuid.UUID) error
}

type enrollmentService struct {
	db         *gorm.DB // トランザクション用にDB接続を持つ
	userRepo   repository.UserRepository
	courseRepo repository.CourseRepository
	enrollRepo repository.EnrollmentRepository
	progRepo   repository.ProgressRepository
	locks      *EnrollmentLocker
}

func NewEnrollmentService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	courseRepo repository.CourseRepository,
	enrollRepo repository.EnrollmentRepository,
	progRepo repository.ProgressRepository,
	locks *EnrollmentLocker,
) EnrollmentService {
	return &enrollmentService{
		db:         db,
		userRepo:   userRepo,
		courseRepo: courseRepo,
		enrollRepo: enrollRepo,
		progRepo:   progRepo,
		locks:      locks,
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, userID, courseID uuid.UUID) (*model.Enrollment, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID, "course_id", courseID)

	var created *model.Enrollment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. ユーザー存在確認
		if _, err := s.userRepo.FindByID(ctx, tx, userID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("USER_NOT_FOUND", "ユーザーが見つかりません。", "", model.ErrNotFound)
			}
			logger.Error("Error finding user in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "受講登録中にエラーが発生しました。", "", err)
		}

		// 2. 講座をレッスン付きで取得
		course, err := s.courseRepo.FindByID(ctx, tx, courseID, true)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("COURSE_NOT_FOUND", "講座が見つかりません。", "course_id", model.ErrNotFound)
			}
			logger.Error("Error finding course in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "受講登録中にエラーが発生しました。", "", err)
		}

		// 3. 重複登録チェック ((user, course) は一意)
		_, err = s.enrollRepo.FindByUserAndCourse(ctx, tx, userID, courseID)
		if err == nil {
			return model.NewAppError("ALREADY_ENROLLED", "この講座には既に登録されています。", "course_id", model.ErrConflict)
		}
		if !errors.Is(err, model.ErrNotFound) {
			logger.Error("Error checking existing enrollment in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "受講登録中にエラーが発生しました。", "", err)
		}

		// 4. 受講登録を作成
		enrollment := &model.Enrollment{
			EnrollmentID: uuid.New(),
			UserID:       userID,
			CourseID:     courseID,
			Progress:     0,
			Status:       model.EnrollmentNotStarted,
		}
		if err := s.enrollRepo.Create(ctx, tx, enrollment); err != nil {
			// 一意制約違反 (同時登録のレースコンディション)
			if errors.Is(err, model.ErrConflict) {
				return model.NewAppError("ALREADY_ENROLLED", "この講座には既に登録されています。", "course_id", model.ErrConflict)
			}
			logger.Error("Error creating enrollment in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "受講登録の作成に失敗しました。", "", err)
		}

		// 5. 既存レッスンごとに LessonProgress を作成
		for _, lesson := range course.Lessons {
			lp := &model.LessonProgress{
				EnrollmentID: enrollment.EnrollmentID,
				LessonID:     lesson.LessonID,
				Title:        lesson.Title,
				Status:       model.LessonNotStarted,
			}
			if err := s.progRepo.Create(ctx, tx, lp); err != nil {
				logger.Error("Error creating lesson progress in transaction", "error", err, "lesson_id", lesson.LessonID)
				return model.NewAppError("INTERNAL_SERVER_ERROR", "受講登録の作成に失敗しました。", "", err)
			}
			enrollment.LessonProgress = append(enrollment.LessonProgress, *lp)
		}

		// 6. 講座の受講登録カウンタを加算 (同一トランザクション内)
		if err := s.courseRepo.AddEnrollmentsCount(ctx, tx, courseID, 1); err != nil {
			logger.Error("Error incrementing enrollments count in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "受講登録の作成に失敗しました。", "", err)
		}

		enrollment.Course = course
		created = enrollment
		return nil // コミット
	})

	if err != nil {
		return nil, err
	}

	logger.Info("User enrolled to course", "enrollment_id", created.EnrollmentID)
	return created, nil
}

func (s *enrollmentService) Unenroll(ctx context.Context, userID, enrollmentID uuid.UUID) error {
	logger := middleware.GetLogger(ctx).With("user_id", userID, "enrollment_id", enrollmentID)

	// 進捗更新との競合を防ぐため、受講登録単位で直列化する
	unlock := s.locks.Lock(enrollmentID)
	defer unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 所有確認込みの存在確認
		enrollment, err := s.enrollRepo.FindOwned(ctx, tx, userID, enrollmentID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("ENROLLMENT_NOT_FOUND", "受講登録が見つかりません。", "", model.ErrNotFound)
			}
			logger.Error("Error finding enrollment in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "受講解除中にエラーが発生しました。", "", err)
		}

		// 2. LessonProgress → Enrollment の順に削除
		if err := s.progRepo.DeleteByEnrollment(ctx, tx, enrollmentID); err != nil {
			logger.Error("Error deleting lesson progress in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "受講解除に失敗しました。", "", err)
		}
		if err := s.enrollRepo.Delete(ctx, tx, enrollmentID); err != nil {
			logger.Error("Error deleting enrollment in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "受講解除に失敗しました。", "", err)
		}

		// 3. 受講登録カウンタを減算 (下限0)
		if err := s.courseRepo.AddEnrollmentsCount(ctx, tx, enrollment.CourseID, -1); err != nil {
			logger.Error("Error decrementing enrollments count in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "受講解除に失敗しました。", "", err)
		}

		return nil // コミット
	})

	if err != nil {
		return err
	}

	logger.Info("User unenrolled from course")
	return nil
}

func (s *enrollmentService) GetEnrollments(ctx context.Context, userID uuid.UUID) ([]*model.Enrollment, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID)

	if _, err := s.userRepo.FindByID(ctx, s.db, userID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("USER_NOT_FOUND", "ユーザーが見つかりません。", "", model.ErrNotFound)
		}
		logger.Error("Error finding user", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "受講一覧の取得に失敗しました。", "", err)
	}

	enrollments, err := s.enrollRepo.FindByUser(ctx, s.db, userID)
	if err != nil {
		logger.Error("Error listing enrollments", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "受講一覧の取得に失敗しました。", "", err)
	}
	return enrollments, nil
}

func (s *enrollmentService) GetEnrollmentDetail(ctx context.Context, userID, enrollmentID uuid.UUID) (*model.Enrollment, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID, "enrollment_id", enrollmentID)

	enrollment, err := s.enrollRepo.FindOwnedDetail(ctx, s.db, userID, enrollmentID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("ENROLLMENT_NOT_FOUND", "受講登録が見つかりません。", "", model.ErrNotFound)
		}
		logger.Error("Error finding enrollment detail", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "受講詳細の取得に失敗しました。", "", err)
	}
	return enrollment, nil
}

// UpdateProgress は進捗率の手動上書きです。導出パス (CompleteLesson) とは
// 独立した操作で、status や LessonProgress には触れません。
func (s *enrollmentService) UpdateProgress(ctx context.Context, userID, enrollmentID uuid.UUID, progress int) error {
	logger := middleware.GetLogger(ctx).With("user_id", userID, "enrollment_id", enrollmentID)

	if progress < 0 || progress > 100 {
		return model.NewAppError("PROGRESS_OUT_OF_RANGE", "進捗率は0から100の間で指定してください。", "progress", model.ErrInvalidInput)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.enrollRepo.UpdateProgress(ctx, tx, userID, enrollmentID, progress); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("ENROLLMENT_NOT_FOUND", "受講登録が見つかりません。", "", model.ErrNotFound)
			}
			logger.Error("Error updating progress in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "進捗の更新に失敗しました。", "", err)
		}
		return nil
	})

	if err != nil {
		return err
	}

	logger.Info("Enrollment progress overwritten", "progress", progress)
	return nil
}

func (s *enrollmentService) CompleteLesson(ctx context.Context, userID, enrollmentID, lessonID uuid.UUID) error {
	logger := middleware.GetLogger(ctx).With("user_id", userID, "enrollment_id", enrollmentID, "lesson_id", lessonID)

	// 同一受講登録への並行完了操作を直列化する (lost update 防止)
	unlock := s.locks.Lock(enrollmentID)
	defer unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 所有確認込みで LessonProgress 付きの受講登録を取得
		enrollment, err := s.enrollRepo.FindOwned(ctx, tx, userID, enrollmentID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("ENROLLMENT_NOT_FOUND", "受講登録が見つかりません。", "", model.ErrNotFound)
			}
			logger.Error("Error finding enrollment in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "レッスン完了の処理中にエラーが発生しました。", "", err)
		}

		// 2. 対象の LessonProgress を特定
		var target *model.LessonProgress
		for i := range enrollment.LessonProgress {
			if enrollment.LessonProgress[i].LessonID == lessonID {
				target = &enrollment.LessonProgress[i]
				break
			}
		}
		if target == nil {
			return model.NewAppError("LESSON_PROGRESS_NOT_FOUND", "この受講登録に該当レッスンがありません。", "lesson_id", model.ErrNotFound)
		}

		// 3. 完了済みなら何もしない (冪等)
		if target.Status == model.LessonCompleted {
			logger.Info("Lesson already completed, no-op")
			return nil
		}

		// 4. 完了状態を保存し、派生フィールドを再計算
		if _, err := s.progRepo.UpdateStatus(ctx, tx, enrollmentID, lessonID, model.LessonCompleted); err != nil {
			logger.Error("Error updating lesson progress status in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "レッスン完了の保存に失敗しました。", "", err)
		}
		target.Status = model.LessonCompleted

		progress, status := model.DeriveProgress(enrollment.LessonProgress)
		if err := s.enrollRepo.UpdateDerived(ctx, tx, enrollmentID, progress, status); err != nil {
			logger.Error("Error saving derived enrollment fields in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "進捗の再計算結果の保存に失敗しました。", "", err)
		}

		logger.Info("Lesson completed", "progress", progress, "status", status)
		return nil // コミット
	})

	return err
}
