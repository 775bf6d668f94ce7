package repo

import (
	"context"
	"fmt"

	"github.com/skillsharecyber/courseplatform/internal/models"
)

// ListCourses returns the course catalog without question payloads.
func (r *GormRepo) ListCourses(ctx context.Context, offset, limit int) ([]models.Course, int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Course{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	var courses []models.Course
	if err := r.DB.WithContext(ctx).
		Omit("questions").
		Order("id ASC").Offset(offset).Limit(limit).
		Find(&courses).Error; err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	return courses, total, nil
}

func (r *GormRepo) FindCourseByID(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	if err := r.DB.WithContext(ctx).First(&course, id).Error; err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &course, nil
}

// FindCourseOwned returns the course only when ownerID created it.
func (r *GormRepo) FindCourseOwned(ctx context.Context, id, ownerID uint) (*models.Course, error) {
	var course models.Course
	if err := r.DB.WithContext(ctx).
		Where("id = ? AND created_by = ?", id, ownerID).
		First(&course).Error; err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &course, nil
}

func (r *GormRepo) CreateCourse(ctx context.Context, course *models.Course) error {
	if err := r.DB.WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *GormRepo) SaveCourse(ctx context.Context, course *models.Course) error {
	if err := r.DB.WithContext(ctx).Save(course).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteCourseOwned deletes the course only when ownerID created it.
func (r *GormRepo) DeleteCourseOwned(ctx context.Context, id, ownerID uint) error {
	tx := r.DB.WithContext(ctx).
		Where("id = ? AND created_by = ?", id, ownerID).
		Delete(&models.Course{})
	if tx.Error != nil {
		return fmt.Errorf("db error: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
