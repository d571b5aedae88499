// internal/handlers/enrollment_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"go_5_course_keep/internal/middleware"
	"go_5_course_keep/internal/model"
	"go_5_course_keep/internal/service"
	"go_5_course_keep/internal/webutil"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type EnrollmentHandler struct {
	service service.EnrollmentService
	logger  *slog.Logger
}

func NewEnrollmentHandler(s service.EnrollmentService, logger *slog.Logger) *EnrollmentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrollmentHandler{
		service: s,
		logger:  logger,
	}
}

// PostEnrollment は認証ユーザーを講座に受講登録するためのハンドラ
func (h *EnrollmentHandler) PostEnrollment(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostEnrollment"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	var req model.EnrollRequest
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

	// validate:"uuid" 通過済みのためここでは失敗しない
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "course_idの形式が正しくありません。", "course_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	enrollment, err := h.service.Enroll(r.Context(), userID, courseID)
	if err != nil {
		logger.Error("Error enrolling in service", slog.Any("error", err), slog.String("course_id", req.CourseID))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Enrollment posted successfully", slog.String("enrollment_id", enrollment.EnrollmentID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, enrollment, logger)
}

// GetEnrollments は認証ユーザーの受講登録一覧を取得するためのハンドラ
func (h *EnrollmentHandler) GetEnrollments(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetEnrollments"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	enrollments, err := h.service.GetEnrollments(r.Context(), userID)
	if err != nil {
		logger.Error("Error listing enrollments in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if enrollments == nil {
		enrollments = []*model.Enrollment{}
	}
	logger.Info("Enrollments listed successfully", slog.Int("count", len(enrollments)))
	webutil.RespondWithJSON(w, http.StatusOK, enrollments, logger)
}

// GetEnrollment は特定の受講登録をレッスン進捗付きで取得するためのハンドラ
func (h *EnrollmentHandler) GetEnrollment(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetEnrollment"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	enrollmentID, ok := parseIDParam(w, r, logger, "enrollment_id")
	if !ok {
		return
	}
	logger = logger.With(slog.String("enrollment_id", enrollmentID.String()))

	enrollment, err := h.service.GetEnrollmentDetail(r.Context(), userID, enrollmentID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Info("Enrollment not found in service", slog.Any("error", err))
		} else {
			logger.Error("Error getting enrollment from service", slog.Any("error", err))
		}
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Enrollment retrieved successfully")
	webutil.RespondWithJSON(w, http.StatusOK, enrollment, logger)
}

// DeleteEnrollment は受講登録を解除するためのハンドラ
func (h *EnrollmentHandler) DeleteEnrollment(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteEnrollment"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	enrollmentID, ok := parseIDParam(w, r, logger, "enrollment_id")
	if !ok {
		return
	}
	logger = logger.With(slog.String("enrollment_id", enrollmentID.String()))

	if err := h.service.Unenroll(r.Context(), userID, enrollmentID); err != nil {
		logger.Error("Error unenrolling in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Enrollment deleted successfully")
	w.WriteHeader(http.StatusNoContent)
}

// PatchProgress は進捗率を手動で上書きするためのハンドラ。
// 派生計算を通さず progress 列のみ更新する
func (h *EnrollmentHandler) PatchProgress(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PatchProgress"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	enrollmentID, ok := parseIDParam(w, r, logger, "enrollment_id")
	if !ok {
		return
	}
	logger = logger.With(slog.String("enrollment_id", enrollmentID.String()))

	var req model.UpdateProgressRequest
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

	if err := h.service.UpdateProgress(r.Context(), userID, enrollmentID, *req.Progress); err != nil {
		logger.Error("Error updating progress in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Progress updated successfully", slog.Int("progress", *req.Progress))
	w.WriteHeader(http.StatusNoContent)
}

// PatchCompleteLesson はレッスンを完了にし、進捗率とステータスを
// 再計算するためのハンドラ。完了済みの場合は何もしない
func (h *EnrollmentHandler) PatchCompleteLesson(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PatchCompleteLesson"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	enrollmentID, ok := parseIDParam(w, r, logger, "enrollment_id")
	if !ok {
		return
	}
	lessonID, ok := parseIDParam(w, r, logger, "lesson_id")
	if !ok {
		return
	}
	logger = logger.With(slog.String("enrollment_id", enrollmentID.String()), slog.String("lesson_id", lessonID.String()))

	if err := h.service.CompleteLesson(r.Context(), userID, enrollmentID, lessonID); err != nil {
		logger.Error("Error completing lesson in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Lesson completed successfully")
	w.WriteHeader(http.StatusNoContent)
}
