// internal/service/course_service.go
package service

import (
	"context"
	"errors"

	"go_5_course_keep/internal/middleware"
	"go_5_course_keep/internal/model"
	"go_5_course_keep/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CourseService は講座カタログの操作を提供します。
// レッスンの追加・削除は CatalogPropagator を通じて既存の全受講登録に反映されます。
type CourseService interface {
	CreateCourse(ctx context.Context, req *model.CreateCourseRequest) (*model.Course, error)
	GetCourses(ctx context.Context) ([]*model.Course, error)
	GetCourse(ctx context.Context, courseID uuid.UUID) (*model.Course, error)
	AddLesson(ctx context.Context, courseID uuid.UUID, req *model.CreateLessonRequest) (*model.Lesson, *PropagationReport, error)
	DeleteLesson(ctx context.Context, courseID, lessonID uuid.UUID) (*PropagationReport, error)
	DeleteCourse(ctx context.Context, courseID uuid.UUID) error
}

type courseService struct {
	db         *gorm.DB
	courseRepo repository.CourseRepository
	lessonRepo repository.LessonRepository
	enrollRepo repository.EnrollmentRepository
	progRepo   repository.ProgressRepository
	propagator *CatalogPropagator
}

func NewCourseService(
	db *gorm.DB,
	courseRepo repository.CourseRepository,
	lessonRepo repository.LessonRepository,
	enrollRepo repository.EnrollmentRepository,
	progRepo repository.ProgressRepository,
	propagator *CatalogPropagator,
) CourseService {
	return &courseService{
		db:         db,
		courseRepo: courseRepo,
		lessonRepo: lessonRepo,
		enrollRepo: enrollRepo,
		progRepo:   progRepo,
		propagator: propagator,
	}
}

func (s *courseService) CreateCourse(ctx context.Context, req *model.CreateCourseRequest) (*model.Course, error) {
	logger := middleware.GetLogger(ctx)

	var created *model.Course

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course := &model.Course{
			CourseID:    uuid.New(),
			Title:       req.Title,
			Description: req.Description,
			Tags:        datatypes.NewJSONSlice(req.Tags),
		}
		if err := s.courseRepo.Create(ctx, tx, course); err != nil {
			logger.Error("Error creating course in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "講座の作成に失敗しました。", "", err)
		}

		for i, lessonReq := range req.Lessons {
			lesson := &model.Lesson{
				LessonID: uuid.New(),
				CourseID: course.CourseID,
				Title:    lessonReq.Title,
				Position: i,
			}
			if err := s.lessonRepo.Create(ctx, tx, lesson); err != nil {
				logger.Error("Error creating lesson in transaction", "error", err, "title", lessonReq.Title)
				return model.NewAppError("INTERNAL_SERVER_ERROR", "講座の作成に失敗しました。", "", err)
			}
			course.Lessons = append(course.Lessons, *lesson)
		}

		created = course
		return nil // コミット
	})

	if err != nil {
		return nil, err
	}

	logger.Info("Course created", "course_id", created.CourseID, "lessons", len(created.Lessons))
	return created, nil
}

func (s *courseService) GetCourses(ctx context.Context) ([]*model.Course, error) {
	logger := middleware.GetLogger(ctx)

	courses, err := s.courseRepo.FindAll(ctx, s.db)
	if err != nil {
		logger.Error("Error listing courses", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "講座一覧の取得に失敗しました。", "", err)
	}
	return courses, nil
}

func (s *courseService) GetCourse(ctx context.Context, courseID uuid.UUID) (*model.Course, error) {
	logger := middleware.GetLogger(ctx).With("course_id", courseID)

	course, err := s.courseRepo.FindByID(ctx, s.db, courseID, true)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("COURSE_NOT_FOUND", "講座が見つかりません。", "", model.ErrNotFound)
		}
		logger.Error("Error finding course", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "講座の取得に失敗しました。", "", err)
	}
	return course, nil
}

// AddLesson はレッスンを講座末尾に追加し、既存の全受講登録へ
// LessonProgress の作成と進捗再計算をファンアウトします。
// ファンアウトの部分的な失敗はレッスン追加自体を取り消しません。
func (s *courseService) AddLesson(ctx context.Context, courseID uuid.UUID, req *model.CreateLessonRequest) (*model.Lesson, *PropagationReport, error) {
	logger := middleware.GetLogger(ctx).With("course_id", courseID)

	var lesson *model.Lesson

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.courseRepo.FindByID(ctx, tx, courseID, false); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("COURSE_NOT_FOUND", "講座が見つかりません。", "", model.ErrNotFound)
			}
			logger.Error("Error finding course in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "レッスンの追加に失敗しました。", "", err)
		}

		count, err := s.lessonRepo.CountByCourse(ctx, tx, courseID)
		if err != nil {
			logger.Error("Error counting lessons in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "レッスンの追加に失敗しました。", "", err)
		}

		lesson = &model.Lesson{
			LessonID: uuid.New(),
			CourseID: courseID,
			Title:    req.Title,
			Position: int(count),
		}
		if err := s.lessonRepo.Create(ctx, tx, lesson); err != nil {
			logger.Error("Error creating lesson in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "レッスンの追加に失敗しました。", "", err)
		}
		return nil // コミット
	})
	if err != nil {
		return nil, nil, err
	}

	// レッスン確定後に既存受講登録へ反映する。受講登録ごとに独立した
	// トランザクションで処理し、失敗はレポートに集約する
	report, err := s.propagator.LessonAdded(ctx, lesson)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Lesson added", "lesson_id", lesson.LessonID, "propagated_to", report.Total, "failed", len(report.Failures))
	return lesson, report, nil
}

// DeleteLesson はレッスンを削除し、既存の全受講登録から対応する
// LessonProgress の削除と進捗再計算をファンアウトします。
func (s *courseService) DeleteLesson(ctx context.Context, courseID, lessonID uuid.UUID) (*PropagationReport, error) {
	logger := middleware.GetLogger(ctx).With("course_id", courseID, "lesson_id", lessonID)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lessonRepo.Delete(ctx, tx, courseID, lessonID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("LESSON_NOT_FOUND", "レッスンが見つかりません。", "lesson_id", model.ErrNotFound)
			}
			logger.Error("Error deleting lesson in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "レッスンの削除に失敗しました。", "", err)
		}
		return nil // コミット
	})
	if err != nil {
		return nil, err
	}

	report, err := s.propagator.LessonRemoved(ctx, courseID, lessonID)
	if err != nil {
		return nil, err
	}

	logger.Info("Lesson deleted", "propagated_to", report.Total, "failed", len(report.Failures))
	return report, nil
}

// DeleteCourse は講座と配下のレッスン・受講登録・LessonProgress を
// 1トランザクションでカスケード削除します。論理削除はありません。
func (s *courseService) DeleteCourse(ctx context.Context, courseID uuid.UUID) error {
	logger := middleware.GetLogger(ctx).With("course_id", courseID)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.courseRepo.FindByID(ctx, tx, courseID, false); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("COURSE_NOT_FOUND", "講座が見つかりません。", "", model.ErrNotFound)
			}
			logger.Error("Error finding course in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "講座の削除に失敗しました。", "", err)
		}

		// 子テーブルから順に削除する
		if err := s.progRepo.DeleteByCourse(ctx, tx, courseID); err != nil {
			logger.Error("Error cascading lesson progress deletion", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "講座の削除に失敗しました。", "", err)
		}
		if err := s.enrollRepo.DeleteByCourse(ctx, tx, courseID); err != nil {
			logger.Error("Error cascading enrollment deletion", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "講座の削除に失敗しました。", "", err)
		}
		if err := s.lessonRepo.DeleteByCourse(ctx, tx, courseID); err != nil {
			logger.Error("Error cascading lesson deletion", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "講座の削除に失敗しました。", "", err)
		}
		if err := s.courseRepo.Delete(ctx, tx, courseID); err != nil {
			logger.Error("Error deleting course in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "講座の削除に失敗しました。", "", err)
		}
		return nil // コミット
	})

	if err != nil {
		return err
	}

	logger.Info("Course deleted with cascading enrollments and lessons")
	return nil
}
