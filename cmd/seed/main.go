// cmd/seed/main.go
//
// 開発用のデモデータ投入CLI。講座が1件も無い場合のみ、
// 10講座×5レッスンを作成します。
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"go_5_course_keep/internal/config"
	"go_5_course_keep/internal/model"
	"go_5_course_keep/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var sampleTags = []string{"go", "web", "database", "testing", "api", "basics"}

var sampleDescriptions = []string{
	"基礎から順に学べる入門講座です。",
	"実践的な演習を中心に進める講座です。",
	"現場で使われるパターンを題材にした講座です。",
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := config.LoadConfig("./configs"); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := repository.NewDB(config.Cfg.Database.URL, logger)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Lesson{},
		&model.Enrollment{},
		&model.LessonProgress{},
	); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}

	var count int64
	if err := db.Model(&model.Course{}).Count(&count).Error; err != nil {
		log.Fatalf("Failed to count courses: %v", err)
	}
	if count > 0 {
		slog.Info("Database already seeded", slog.Int64("courses", count))
		return
	}

	slog.Info("Seeding the database with initial courses and lessons")

	err = db.Transaction(func(tx *gorm.DB) error {
		for i := 1; i <= 10; i++ {
			course := &model.Course{
				CourseID:    uuid.New(),
				Title:       fmt.Sprintf("Course Title %d", i),
				Description: sampleDescriptions[i%len(sampleDescriptions)],
				Tags: datatypes.NewJSONSlice([]string{
					sampleTags[i%len(sampleTags)],
					sampleTags[(i+2)%len(sampleTags)],
				}),
			}
			if err := tx.Create(course).Error; err != nil {
				return err
			}

			for j := 0; j < 5; j++ {
				lesson := &model.Lesson{
					LessonID: uuid.New(),
					CourseID: course.CourseID,
					Title:    fmt.Sprintf("Lesson %d: Course %d の演習", j+1, i),
					Position: j,
				}
				if err := tx.Create(lesson).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	slog.Info("Seeding completed")
}
