// internal/model/progress.go
package model

import "math"

// DeriveProgress は LessonProgress の集合から進捗率とステータスを導出します。
// 副作用・I/Oなし。LessonProgress を変更した後は必ず呼び出して
// Enrollment の progress/status を再計算する必要があります。
//
//	progress = round(100 * completed / total)  (total == 0 なら 0)
//	COMPLETED   : completed == total かつ total > 0
//	IN_PROGRESS : 0 < completed < total
//	NOT_STARTED : それ以外
func DeriveProgress(lps []LessonProgress) (int, EnrollmentStatus) {
	total := len(lps)
	if total == 0 {
		return 0, EnrollmentNotStarted
	}

	completed := 0
	for _, lp := range lps {
		if lp.Status == LessonCompleted {
			completed++
		}
	}

	progress := int(math.Round(float64(completed) * 100 / float64(total)))

	switch {
	case completed == total:
		return progress, EnrollmentCompleted
	case completed > 0:
		return progress, EnrollmentInProgress
	default:
		return progress, EnrollmentNotStarted
	}
}
