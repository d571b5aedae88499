// internal/service/enrollment_service_test.go
package service

import (
	"context"
	"sync"
	"testing"

	"go_5_course_keep/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_enrollmentService_Enroll(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 登録時に全レッスンのLessonProgressが作成される", func(t *testing.T) {
		env := newTestEnv(t)
		user := createTestUser(t, env.db)
		course := createTestCourse(t, env.db, 3)

		enrollment, err := env.enrollmentService.Enroll(ctx, user.UserID, course.CourseID)
		require.NoError(t, err)
		require.NotNil(t, enrollment)

		assert.Equal(t, user.UserID, enrollment.UserID)
		assert.Equal(t, course.CourseID, enrollment.CourseID)
		assert.Equal(t, 0, enrollment.Progress)
		assert.Equal(t, model.EnrollmentNotStarted, enrollment.Status)

		// LessonProgress はレッスンごとに1件、タイトルはスナップショット
		stored := reloadEnrollment(t, env.db, enrollment.EnrollmentID)
		require.Len(t, stored.LessonProgress, 3)
		titles := make(map[uuid.UUID]string)
		for _, lp := range stored.LessonProgress {
			assert.Equal(t, model.LessonNotStarted, lp.Status)
			titles[lp.LessonID] = lp.Title
		}
		for _, lesson := range course.Lessons {
			assert.Equal(t, lesson.Title, titles[lesson.LessonID])
		}

		// カウンタは同一トランザクションで加算される
		assert.Equal(t, 1, reloadCourse(t, env.db, course.CourseID).EnrollmentsCount)
	})

	t.Run("正常系: レッスンのない講座にも登録できる", func(t *testing.T) {
		env := newTestEnv(t)
		user := createTestUser(t, env.db)
		course := createTestCourse(t, env.db, 0)

		enrollment, err := env.enrollmentService.Enroll(ctx, user.UserID, course.CourseID)
		require.NoError(t, err)
		assert.Equal(t, 0, enrollment.Progress)
		assert.Equal(t, model.EnrollmentNotStarted, enrollment.Status)
		assert.Empty(t, reloadEnrollment(t, env.db, enrollment.EnrollmentID).LessonProgress)
	})

	t.Run("異常系: 同一講座への二重登録はConflict", func(t *testing.T) {
		env := newTestEnv(t)
		user := createTestUser(t, env.db)
		course := createTestCourse(t, env.db, 2)

		_, err := env.enrollmentService.Enroll(ctx, user.UserID, course.CourseID)
		require.NoError(t, err)

		_, err = env.enrollmentService.Enroll(ctx, user.UserID, course.CourseID)
		assert.ErrorIs(t, err, model.ErrConflict)

		// 失敗した登録でカウンタが増えていないこと
		assert.Equal(t, 1, reloadCourse(t, env.db, course.CourseID).EnrollmentsCount)
	})

	t.Run("異常系: 存在しない講座はNotFound", func(t *testing.T) {
		env := newTestEnv(t)
		user := createTestUser(t, env.db)

		_, err := env.enrollmentService.Enroll(ctx, user.UserID, uuid.New())
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("異常系: 存在しないユーザーはNotFound", func(t *testing.T) {
		env := newTestEnv(t)
		course := createTestCourse(t, env.db, 1)

		_, err := env.enrollmentService.Enroll(ctx, uuid.New(), course.CourseID)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func Test_enrollmentService_Unenroll(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 解除で受講登録とLessonProgressが消えカウンタが戻る", func(t *testing.T) {
		env := newTestEnv(t)
		user := createTestUser(t, env.db)
		course := createTestCourse(t, env.db, 2)

		enrollment, err := env.enrollmentService.Enroll(ctx, user.UserID, course.CourseID)
		require.NoError(t, err)
		require.Equal(t, 1, reloadCourse(t, env.db, course.CourseID).EnrollmentsCount)

		err = env.enrollmentService.Unenroll(ctx, user.UserID, enrollment.EnrollmentID)
		require.NoError(t, err)

		var enrollCount, lpCount int64
		require.NoError(t, env.db.Model(&model.Enrollment{}).Where("enrollment_id = ?", enrollment.EnrollmentID).Count(&enrollCount).Error)
		require.NoError(t, env.db.Model(&model.LessonProgress{}).Where("enrollment_id = ?", enrollment.EnrollmentID).Count(&lpCount).Error)
		assert.Zero(t, enrollCount)
		assert.Zero(t, lpCount)
		assert.Equal(t, 0, reloadCourse(t, env.db, course.CourseID).EnrollmentsCount)
	})

	t.Run("正常系: 解除後は再登録できる", func(t *testing.T) {
		env := newTestEnv(t)
		user := createTestUser(t, env.db)
		course := createTestCourse(t, env.db, 1)

		first, err := env.enrollmentService.Enroll(ctx, user.UserID, course.CourseID)
		require.NoError(t, err)
		require.NoError(t, env.enrollmentService.Unenroll(ctx, user.UserID, first.EnrollmentID))

		second, err := env.enrollmentService.Enroll(ctx, user.UserID, course.CourseID)
		require.NoError(t, err)
		assert.NotEqual(t, first.EnrollmentID, second.EnrollmentID)
		assert.Equal(t, 1, reloadCourse(t, env.db, course.CourseID).EnrollmentsCount)
	})

	t.Run("異常系: 他ユーザーの受講登録は解除できない", func(t *testing.T) {
		env := newTestEnv(t)
		owner := createTestUser(t, env.db)
		other := createTestUser(t, env.db)
		course := createTestCourse(t, env.db, 1)

		enrollment, err := env.enrollmentService.Enroll(ctx, owner.UserID, course.CourseID)
		require.NoError(t, err)

		err = env.enrollmentService.Unenroll(ctx, other.UserID, enrollment.EnrollmentID)
		assert.ErrorIs(t, err, model.ErrNotFound)

		// 解除されていないこと
		assert.Equal(t, 1, reloadCourse(t, env.db, course.CourseID).EnrollmentsCount)
	})

	t.Run("異常系: 二重解除はNotFound", func(t *testing.T) {
		env := newTestEnv(t)
		user := createTestUser(t, env.db)
		course := createTestCourse(t, env.db, 1)

		enrollment, err := env.enrollmentService.Enroll(ctx, user.UserID, course.CourseID)
		require.NoError(t, err)
		require.NoError(t, env.enrollmentService.Unenroll(ctx, user.UserID, enrollment.EnrollmentID))

		err = env.enrollmentService.Unenroll(ctx, user.UserID, enrollment.EnrollmentID)
		assert.ErrorIs(t, err, model.ErrNotFound)
		// カウンタが負にならないこと
		assert.Equal(t, 0, reloadCourse(t, env.db, course.CourseID).EnrollmentsCount)
	})
}

func Test_enrollmentService_GetEnrollments(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 自分の受講登録のみ講座付きで返る", func(t *testing.T) {
		env := newTestEnv(t)
		user := createTestUser(t, env.db)
		other := createTestUser(t, env.db)
		courseA := createTestCourse(t, env.db, 1)
		courseB := createTestCourse(t, env.db, 2)

		_, err := env.enrollmentService.Enroll(ctx, user.UserID, courseA.CourseID)
		require.NoError(t, err)
		_, err = env.enrollmentService.Enroll(ctx, user.UserID, courseB.CourseID)
		require.NoError(t, err)
		_, err = env.enrollmentService.Enroll(ctx, other.UserID, courseA.CourseID)
		require.NoError(t, err)

		enrollments, err := env.enrollmentService.GetEnrollments(ctx, user.UserID)
		require.NoError(t, err)
		require.Len(t, enrollments, 2)
		for _, e := range enrollments {
			assert.Equal(t, user.UserID, e.UserID)
			require.NotNil(t, e.Course)
		}
	})

	t.Run("正常系: 登録がなければ空", func(t *testing.T) {
		env := newTestEnv(t)
		user := createTestUser(t, env.db)

		enrollments, err := env.enrollmentService.GetEnrollments(ctx, user.UserID)
		require.NoError(t, err)
		assert.Empty(t, enrollments)
	})

	t.Run("異常系: 存在しないユーザーはNotFound", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.enrollmentService.GetEnrollments(ctx, uuid.New())
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func Test_enrollmentService_GetEnrollmentDetail(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 講座・レッスン・進捗がすべて解決される", func(t *testing.T) {
		env := newTestEnv(t)
		user := createTestUser(t, env.db)
		course := createTestCourse(t, env.db, 3)

		enrollment, err := env.enrollmentService.Enroll(ctx, user.UserID, course.CourseID)
		require.NoError(t, err)

		detail, err := env.enrollmentService.GetEnrollmentDetail(ctx, user.UserID, enrollment.EnrollmentID)
		require.NoError(t, err)
		require.NotNil(t, detail.Course)
		assert.Equal(t, course.CourseID, detail.Course.CourseID)
		assert.Len(t, detail.Course.Lessons, 3)
		assert.Len(t, detail.LessonProgress, 3)
	})

	t.Run("異常系: 他ユーザーの受講登録はNotFound", func(t *testing.T) {
		env := newTestEnv(t)
		owner := createTestUser(t, env.db)
		other := createTestUser(t, env.db)
		course := createTestCourse(t, env.db, 1)

		enrollment, err := env.enrollmentService.Enroll(ctx, owner.UserID, course.CourseID)
		require.NoError(t, err)

		_, err = env.enrollmentService.GetEnrollmentDetail(ctx, other.UserID, enrollment.EnrollmentID)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func Test_enrollmentService_UpdateProgress(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: progressのみ上書きされstatusは変わらない", func(t *testing.T) {
		env := newTestEnv(t)
		user := createTestUser(t, env.db)
		course := createTestCourse(t, env.db, 2)

		enrollment, err := env.enrollmentService.Enroll(ctx, user.UserID, course.CourseID)
		require.NoError(t, err)

		require.NoError(t, env.enrollmentService.UpdateProgress(ctx, user.UserID, enrollment.EnrollmentID, 55))

		stored := reloadEnrollment(t, env.db, enrollment.EnrollmentID)
		assert.Equal(t, 55, stored.Progress)
		assert.Equal(t, model.EnrollmentNotStarted, stored.Status)
	})

	t.Run("正常系: 境界値0と100を受け付ける", func(t *testing.T) {
		env := newTestEnv(t)
		user := createTestUser(t, env.db)
		course := createTestCourse(t, env.db, 1)

		enrollment, err := env.enrollmentService.Enroll(ctx, user.UserID, course.CourseID)
		require.NoError(t, err)

		require.NoError(t, env.enrollmentService.UpdateProgress(ctx, user.UserID, enrollment.EnrollmentID, 100))
		assert.Equal(t, 100, reloadEnrollment(t, env.db, enrollment.EnrollmentID).Progress)

		require.NoError(t, env.enrollmentService.UpdateProgress(ctx, user.UserID, enrollment.EnrollmentID, 0))
		assert.Equal(t, 0, reloadEnrollment(t, env.db, enrollment.EnrollmentID).Progress)
	})

	t.Run("異常系: 範囲外はInvalidInput", func(t *testing.T) {
		env := newTestEnv(t)
		user := createTestUser(t, env.db)
		course := createTestCourse(t, env.db, 1)

		enrollment, err := env.enrollmentService.Enroll(ctx, user.UserID, course.CourseID)
		require.NoError(t, err)

		assert.ErrorIs(t, env.enrollmentService.UpdateProgress(ctx, user.UserID, enrollment.EnrollmentID, -1), model.ErrInvalidInput)
		assert.ErrorIs(t, env.enrollmentService.UpdateProgress(ctx, user.UserID, enrollment.EnrollmentID, 101), model.ErrInvalidInput)
	})

	t.Run("異常系: 他ユーザーの受講登録はNotFound", func(t *testing.T) {
		env := newTestEnv(t)
		owner := createTestUser(t, env.db)
		other := createTestUser(t, env.db)
		course := createTestCourse(t, env.db, 1)

		enrollment, err := env.enrollmentService.Enroll(ctx, owner.UserID, course.CourseID)
		require.NoError(t, err)

		err = env.enrollmentService.UpdateProgress(ctx, other.UserID, enrollment.EnrollmentID, 50)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func Test_enrollmentService_CompleteLesson(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 完了のたびに進捗率とステータスが再計算される", func(t *testing.T) {
		env := newTestEnv(t)
		user := createTestUser(t, env.db)
		course := createTestCourse(t, env.db, 3)

		enrollment, err := env.enrollmentService.Enroll(ctx, user.UserID, course.CourseID)
		require.NoError(t, err)

		// 1本目: 33% IN_PROGRESS
		require.NoError(t, env.enrollmentService.CompleteLesson(ctx, user.UserID, enrollment.EnrollmentID, course.Lessons[0].LessonID))
		stored := reloadEnrollment(t, env.db, enrollment.EnrollmentID)
		assert.Equal(t, 33, stored.Progress)
		assert.Equal(t, model.EnrollmentInProgress, stored.Status)

		// 2本目: 67% IN_PROGRESS
		require.NoError(t, env.enrollmentService.CompleteLesson(ctx, user.UserID, enrollment.EnrollmentID, course.Lessons[1].LessonID))
		stored = reloadEnrollment(t, env.db, enrollment.EnrollmentID)
		assert.Equal(t, 67, stored.Progress)
		assert.Equal(t, model.EnrollmentInProgress, stored.Status)

		// 3本目: 100% COMPLETED
		require.NoError(t, env.enrollmentService.CompleteLesson(ctx, user.UserID, enrollment.EnrollmentID, course.Lessons[2].LessonID))
		stored = reloadEnrollment(t, env.db, enrollment.EnrollmentID)
		assert.Equal(t, 100, stored.Progress)
		assert.Equal(t, model.EnrollmentCompleted, stored.Status)
	})

	t.Run("正常系: 完了済みレッスンの再完了は何も変えない", func(t *testing.T) {
		env := newTestEnv(t)
		user := createTestUser(t, env.db)
		course := createTestCourse(t, env.db, 2)

		enrollment, err := env.enrollmentService.Enroll(ctx, user.UserID, course.CourseID)
		require.NoError(t, err)

		require.NoError(t, env.enrollmentService.CompleteLesson(ctx, user.UserID, enrollment.EnrollmentID, course.Lessons[0].LessonID))
		before := reloadEnrollment(t, env.db, enrollment.EnrollmentID)

		// 冪等: 2回目はno-op
		require.NoError(t, env.enrollmentService.CompleteLesson(ctx, user.UserID, enrollment.EnrollmentID, course.Lessons[0].LessonID))
		after := reloadEnrollment(t, env.db, enrollment.EnrollmentID)
		assert.Equal(t, before.Progress, after.Progress)
		assert.Equal(t, before.Status, after.Status)
	})

	t.Run("異常系: 講座に属さないレッスンはNotFound", func(t *testing.T) {
		env := newTestEnv(t)
		user := createTestUser(t, env.db)
		course := createTestCourse(t, env.db, 2)
		otherCourse := createTestCourse(t, env.db, 1)

		enrollment, err := env.enrollmentService.Enroll(ctx, user.UserID, course.CourseID)
		require.NoError(t, err)

		err = env.enrollmentService.CompleteLesson(ctx, user.UserID, enrollment.EnrollmentID, otherCourse.Lessons[0].LessonID)
		assert.ErrorIs(t, err, model.ErrNotFound)

		// 進捗は変わらない
		stored := reloadEnrollment(t, env.db, enrollment.EnrollmentID)
		assert.Equal(t, 0, stored.Progress)
		assert.Equal(t, model.EnrollmentNotStarted, stored.Status)
	})

	t.Run("異常系: 他ユーザーの受講登録はNotFound", func(t *testing.T) {
		env := newTestEnv(t)
		owner := createTestUser(t, env.db)
		other := createTestUser(t, env.db)
		course := createTestCourse(t, env.db, 1)

		enrollment, err := env.enrollmentService.Enroll(ctx, owner.UserID, course.CourseID)
		require.NoError(t, err)

		err = env.enrollmentService.CompleteLesson(ctx, other.UserID, enrollment.EnrollmentID, course.Lessons[0].LessonID)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("正常系: 同一受講登録への並行完了でlost updateが起きない", func(t *testing.T) {
		env := newTestEnv(t)
		user := createTestUser(t, env.db)
		course := createTestCourse(t, env.db, 4)

		enrollment, err := env.enrollmentService.Enroll(ctx, user.UserID, course.CourseID)
		require.NoError(t, err)

		// 別レッスンを同時に完了させる。受講登録単位のロックで直列化され、
		// どちらの完了も失われないこと
		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = env.enrollmentService.CompleteLesson(ctx, user.UserID, enrollment.EnrollmentID, course.Lessons[i].LessonID)
			}(i)
		}
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		stored := reloadEnrollment(t, env.db, enrollment.EnrollmentID)
		assert.Equal(t, 50, stored.Progress)
		assert.Equal(t, model.EnrollmentInProgress, stored.Status)

		completed := 0
		for _, lp := range stored.LessonProgress {
			if lp.Status == model.LessonCompleted {
				completed++
			}
		}
		assert.Equal(t, 2, completed)
	})
}
