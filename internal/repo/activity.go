package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/skillsharecyber/courseplatform/internal/models"
)

type ActivityFilter struct {
	Category  string
	UserEmail string
	StartDate *time.Time
	EndDate   *time.Time
}

type ActivityStats struct {
	TotalActivities int64 `json:"total_activities"`
	TemplateActions int64 `json:"template_actions"`
	ProductActions  int64 `json:"product_actions"`
	UniqueUsers     int64 `json:"unique_users"`
}

func (r *GormRepo) CreateActivity(ctx context.Context, entry *models.ActivityLog) error {
	if err := r.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListActivities returns matching entries newest first.
func (r *GormRepo) ListActivities(ctx context.Context, f ActivityFilter, offset, limit int) ([]models.ActivityLog, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.ActivityLog{})
	if f.Category != "" && f.Category != "All" {
		q = q.Where("category = ?", f.Category)
	}
	if f.UserEmail != "" && f.UserEmail != "All" {
		q = q.Where("user_email = ?", f.UserEmail)
	}
	if f.StartDate != nil && f.EndDate != nil {
		q = q.Where("created_at BETWEEN ? AND ?", *f.StartDate, *f.EndDate)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	var logs []models.ActivityLog
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	return logs, total, nil
}

func (r *GormRepo) GetActivityStats(ctx context.Context) (*ActivityStats, error) {
	var stats ActivityStats
	db := r.DB.WithContext(ctx).Model(&models.ActivityLog{})

	if err := db.Count(&stats.TotalActivities).Error; err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := r.DB.WithContext(ctx).Model(&models.ActivityLog{}).
		Where("category LIKE ?", "%Template%").
		Count(&stats.TemplateActions).Error; err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := r.DB.WithContext(ctx).Model(&models.ActivityLog{}).
		Where("category LIKE ?", "%Product%").
		Count(&stats.ProductActions).Error; err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := r.DB.WithContext(ctx).Model(&models.ActivityLog{}).
		Distinct("user_email").
		Count(&stats.UniqueUsers).Error; err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &stats, nil
}
