// internal/service/locks.go
package service

import (
	"sync"

	"github.com/google/uuid"
)

// EnrollmentLocker は受講登録単位のキー付きロックです。
// 「読み込み→LessonProgress変更→再計算→保存」の一連の更新を直列化し、
// 同一受講登録への並行更新による lost update を防ぎます。
// エントリは受講登録数に比例して保持されます (解放はしない)。
type EnrollmentLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewEnrollmentLocker() *EnrollmentLocker {
	return &EnrollmentLocker{
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// Lock は指定IDのロックを取得し、解放用の関数を返します。
func (l *EnrollmentLocker) Lock(enrollmentID uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[enrollmentID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[enrollmentID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
