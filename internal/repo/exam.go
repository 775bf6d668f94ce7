package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skillsharecyber/courseplatform/internal/models"
)

// UpsertSubmission stores one submission per (user, course); a retake
// replaces the previous attempt.
func (r *GormRepo) UpsertSubmission(ctx context.Context, sub *models.ExamSubmission) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"answers", "score", "total", "percent", "passed", "updated_at",
			}),
		}).Create(sub).Error
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *GormRepo) FindSubmission(ctx context.Context, userID, courseID uint) (*models.ExamSubmission, error) {
	var sub models.ExamSubmission
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&sub).Error; err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &sub, nil
}
