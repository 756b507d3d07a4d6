package task

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Repository exposes exactly the storage operations the service needs.
type Repository interface {
	Insert(ctx context.Context, task *Task) error
	FindByID(ctx context.Context, id string) (*Task, error)
	FindPage(ctx context.Context, offset, limit int) ([]Task, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id string) error
	FindByStatus(ctx context.Context, status Status) ([]Task, error)
}

// GormRepository implements Repository on top of GORM.
type GormRepository struct {
	db *gorm.DB
}

var _ Repository = (*GormRepository)(nil)

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Migrate runs database migrations for the tarefas table.
func (r *GormRepository) Migrate() error {
	return r.db.AutoMigrate(&Task{})
}

// Insert saves a new task.
func (r *GormRepository) Insert(ctx context.Context, task *Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindByID retrieves a task by its ID.
func (r *GormRepository) FindByID(ctx context.Context, id string) (*Task, error) {
	var task Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// FindPage returns up to limit tasks after skipping offset, newest first.
func (r *GormRepository) FindPage(ctx context.Context, offset, limit int) ([]Task, error) {
	tasks := make([]Task, 0)
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Count returns the total number of tasks.
func (r *GormRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Task{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return total, nil
}

// Update overwrites title, description and status of an existing task.
// It never inserts.
func (r *GormRepository) Update(ctx context.Context, task *Task) error {
	result := r.db.WithContext(ctx).
		Model(&Task{}).
		Where("id = ?", task.ID).
		Updates(map[string]any{
			"titulo":    task.Title,
			"descricao": task.Description,
			"status":    task.Status,
		})
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.RowsAffected == 0 {
		// MySQL reports zero affected rows when the values are unchanged.
		exists, err := r.exists(ctx, task.ID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

// Delete permanently removes a task by ID.
func (r *GormRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&Task{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByStatus returns every task with the given status, newest first.
func (r *GormRepository) FindByStatus(ctx context.Context, status Status) ([]Task, error) {
	tasks := make([]Task, 0)
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Order("id DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks by status: %w", err)
	}
	return tasks, nil
}

func (r *GormRepository) exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check task: %w", err)
	}
	return count > 0, nil
}
