// internal/service/helpers_test.go
package service

import (
	"fmt"
	"testing"

	"go_5_course_keep/internal/model"
	"go_5_course_keep/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB はテストごとに独立したインメモリDBを作成します。
// 名前付き + cache=shared にすることで、コネクションプール内の
// 全コネクションが同じDBを参照します。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true, // 一意制約違反を gorm.ErrDuplicatedKey に変換する
	})
	require.NoError(t, err, "failed to connect database for testing")

	err = db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Lesson{},
		&model.Enrollment{},
		&model.LessonProgress{},
	)
	require.NoError(t, err, "failed to migrate database for testing")

	return db
}

// テスト用の依存一式。実リポジトリ + インメモリDBで組み立てる
type testEnv struct {
	db                *gorm.DB
	userRepo          repository.UserRepository
	courseRepo        repository.CourseRepository
	lessonRepo        repository.LessonRepository
	enrollRepo        repository.EnrollmentRepository
	progRepo          repository.ProgressRepository
	locks             *EnrollmentLocker
	propagator        *CatalogPropagator
	enrollmentService EnrollmentService
	courseService     CourseService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	userRepo := repository.NewGormUserRepository()
	courseRepo := repository.NewGormCourseRepository()
	lessonRepo := repository.NewGormLessonRepository()
	enrollRepo := repository.NewGormEnrollmentRepository()
	progRepo := repository.NewGormProgressRepository()
	locks := NewEnrollmentLocker()
	propagator := NewCatalogPropagator(db, enrollRepo, progRepo, locks)

	return &testEnv{
		db:                db,
		userRepo:          userRepo,
		courseRepo:        courseRepo,
		lessonRepo:        lessonRepo,
		enrollRepo:        enrollRepo,
		progRepo:          progRepo,
		locks:             locks,
		propagator:        propagator,
		enrollmentService: NewEnrollmentService(db, userRepo, courseRepo, enrollRepo, progRepo, locks),
		courseService:     NewCourseService(db, courseRepo, lessonRepo, enrollRepo, progRepo, propagator),
	}
}

func createTestUser(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()

	user := &model.User{
		UserID:       uuid.New(),
		Username:     "user-" + uuid.New().String()[:8],
		PasswordHash: "not-a-real-hash",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// createTestCourse はレッスンn本付きの講座を作成します
func createTestCourse(t *testing.T, db *gorm.DB, lessonCount int) *model.Course {
	t.Helper()

	course := &model.Course{
		CourseID:    uuid.New(),
		Title:       "テスト講座",
		Description: "テスト用",
	}
	require.NoError(t, db.Omit("Lessons").Create(course).Error)

	for i := 0; i < lessonCount; i++ {
		lesson := model.Lesson{
			LessonID: uuid.New(),
			CourseID: course.CourseID,
			Title:    fmt.Sprintf("レッスン%d", i+1),
			Position: i,
		}
		require.NoError(t, db.Create(&lesson).Error)
		course.Lessons = append(course.Lessons, lesson)
	}
	return course
}

// reloadEnrollment は受講登録を LessonProgress 付きで取り直します
func reloadEnrollment(t *testing.T, db *gorm.DB, enrollmentID uuid.UUID) *model.Enrollment {
	t.Helper()

	var enrollment model.Enrollment
	err := db.Preload("LessonProgress").
		Where("enrollment_id = ?", enrollmentID).
		First(&enrollment).Error
	require.NoError(t, err)
	return &enrollment
}

func reloadCourse(t *testing.T, db *gorm.DB, courseID uuid.UUID) *model.Course {
	t.Helper()

	var course model.Course
	require.NoError(t, db.Where("course_id = ?", courseID).First(&course).Error)
	return &course
}
