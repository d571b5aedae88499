// internal/handlers/course_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"go_5_course_keep/internal/model"
	"go_5_course_keep/internal/service"
	"go_5_course_keep/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type CourseHandler struct {
	service service.CourseService
	logger  *slog.Logger
}

func NewCourseHandler(s service.CourseService, logger *slog.Logger) *CourseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CourseHandler{
		service: s,
		logger:  logger,
	}
}

// LessonMutationResponse はレッスンの追加結果と既存受講登録への
// 伝搬結果をまとめたレスポンス
type LessonMutationResponse struct {
	Lesson      *model.Lesson              `json:"lesson,omitempty"`
	Propagation *service.PropagationReport `json:"propagation"`
}

// PostCourse は新しい講座リソースを作成するためのハンドラ
func (h *CourseHandler) PostCourse(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostCourse"))

	var req model.CreateCourseRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			logger.Warn("Validation failed", slog.Any("errors", validationErrors.Error()), slog.Any("request", req))

			firstErr := validationErrors[0]
			appErr := model.NewAppError(
				"VALIDATION_ERROR",
				firstErr.Translate(webutil.Trans),
				firstErr.Field(),
				model.ErrInvalidInput,
			)
			webutil.HandleError(w, logger, appErr)
		} else {
			logger.Error("Unexpected error during validation", slog.Any("error", err))
			webutil.HandleError(w, logger, err)
		}
		return
	}

	course, err := h.service.CreateCourse(r.Context(), &req)
	if err != nil {
		logger.Error("Error creating course in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Course posted successfully", slog.String("course_id", course.CourseID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, course, logger)
}

// GetCourses は講座リソースの一覧を取得するためのハンドラ
func (h *CourseHandler) GetCourses(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetCourses"))

	courses, err := h.service.GetCourses(r.Context())
	if err != nil {
		logger.Error("Error listing courses in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if courses == nil {
		courses = []*model.Course{}
	}
	logger.Info("Courses listed successfully", slog.Int("count", len(courses)))
	webutil.RespondWithJSON(w, http.StatusOK, courses, logger)
}

// GetCourse は特定の講座リソースをレッスン付きで取得するためのハンドラ
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetCourse"))

	courseID, ok := parseIDParam(w, r, logger, "course_id")
	if !ok {
		return
	}
	logger = logger.With(slog.String("course_id", courseID.String()))

	course, err := h.service.GetCourse(r.Context(), courseID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Info("Course not found in service", slog.Any("error", err))
		} else {
			logger.Error("Error getting course from service", slog.Any("error", err))
		}
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Course retrieved successfully")
	webutil.RespondWithJSON(w, http.StatusOK, course, logger)
}

// DeleteCourse は講座と配下の受講登録・進捗を削除するためのハンドラ
func (h *CourseHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteCourse"))

	courseID, ok := parseIDParam(w, r, logger, "course_id")
	if !ok {
		return
	}
	logger = logger.With(slog.String("course_id", courseID.String()))

	if err := h.service.DeleteCourse(r.Context(), courseID); err != nil {
		logger.Error("Error deleting course in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Course deleted successfully")
	w.WriteHeader(http.StatusNoContent)
}

// PostLesson は講座末尾にレッスンを追加し、既存受講登録への伝搬結果を
// あわせて返すハンドラ
func (h *CourseHandler) PostLesson(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostLesson"))

	courseID, ok := parseIDParam(w, r, logger, "course_id")
	if !ok {
		return
	}
	logger = logger.With(slog.String("course_id", courseID.String()))

	var req model.CreateLessonRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			firstErr := validationErrors[0]
			appErr := model.NewAppError(
				"VALIDATION_ERROR",
				firstErr.Translate(webutil.Trans),
				firstErr.Field(),
				model.ErrInvalidInput,
			)
			webutil.HandleError(w, logger, appErr)
		} else {
			logger.Error("Unexpected error during validation", slog.Any("error", err))
			webutil.HandleError(w, logger, err)
		}
		return
	}

	lesson, report, err := h.service.AddLesson(r.Context(), courseID, &req)
	if err != nil {
		logger.Error("Error adding lesson in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	// 伝搬の部分的な失敗はエラーとして扱わず、レポートで通知する
	if !report.Ok() {
		logger.Warn("Lesson propagation partially failed", slog.Int("failed", len(report.Failures)))
	}
	logger.Info("Lesson posted successfully", slog.String("lesson_id", lesson.LessonID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, LessonMutationResponse{Lesson: lesson, Propagation: report}, logger)
}

// DeleteLesson はレッスンを削除し、既存受講登録への伝搬結果を返すハンドラ
func (h *CourseHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteLesson"))

	courseID, ok := parseIDParam(w, r, logger, "course_id")
	if !ok {
		return
	}
	lessonID, ok := parseIDParam(w, r, logger, "lesson_id")
	if !ok {
		return
	}
	logger = logger.With(slog.String("course_id", courseID.String()), slog.String("lesson_id", lessonID.String()))

	report, err := h.service.DeleteLesson(r.Context(), courseID, lessonID)
	if err != nil {
		logger.Error("Error deleting lesson in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if !report.Ok() {
		logger.Warn("Lesson removal propagation partially failed", slog.Int("failed", len(report.Failures)))
	}
	logger.Info("Lesson deleted successfully")
	webutil.RespondWithJSON(w, http.StatusOK, LessonMutationResponse{Propagation: report}, logger)
}

// parseIDParam はURLパラメータをUUIDとして取り出します。
// 形式不正の場合はエラーレスポンスを書き込み、falseを返します。
func parseIDParam(w http.ResponseWriter, r *http.Request, logger *slog.Logger, name string) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, name)
	id, err := uuid.Parse(idStr)
	if err != nil {
		logger.Warn("Invalid ID format in URL", slog.String("param", name), slog.String("value", idStr), slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_URL_PARAM", name+"の形式が正しくありません。", name, model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return uuid.Nil, false
	}
	return id, true
}
