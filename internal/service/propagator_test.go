// internal/service/propagator_test.go
package service

import (
	"context"
	"testing"

	"go_5_course_keep/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogPropagator_LessonAdded(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 2回適用してもLessonProgressは重複しない", func(t *testing.T) {
		env := newTestEnv(t)
		user := createTestUser(t, env.db)
		course := createTestCourse(t, env.db, 1)

		enrollment, err := env.enrollmentService.Enroll(ctx, user.UserID, course.CourseID)
		require.NoError(t, err)

		lesson := &model.Lesson{
			LessonID: course.Lessons[0].LessonID,
			CourseID: course.CourseID,
			Title:    course.Lessons[0].Title,
		}

		// 登録時に作成済みのレッスンをもう一度伝搬しても増えない
		report, err := env.propagator.LessonAdded(ctx, lesson)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Total)
		assert.True(t, report.Ok())

		stored := reloadEnrollment(t, env.db, enrollment.EnrollmentID)
		assert.Len(t, stored.LessonProgress, 1)
	})
}

func TestCatalogPropagator_LessonRemoved(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 該当レコードがなくても成功扱い (冪等)", func(t *testing.T) {
		env := newTestEnv(t)
		user := createTestUser(t, env.db)
		course := createTestCourse(t, env.db, 2)

		enrollment, err := env.enrollmentService.Enroll(ctx, user.UserID, course.CourseID)
		require.NoError(t, err)

		lessonID := course.Lessons[1].LessonID

		report, err := env.propagator.LessonRemoved(ctx, course.CourseID, lessonID)
		require.NoError(t, err)
		assert.True(t, report.Ok())

		// 2回目: LessonProgress は既に無いがエラーにならない
		report, err = env.propagator.LessonRemoved(ctx, course.CourseID, lessonID)
		require.NoError(t, err)
		assert.True(t, report.Ok())

		stored := reloadEnrollment(t, env.db, enrollment.EnrollmentID)
		assert.Len(t, stored.LessonProgress, 1)
	})
}
