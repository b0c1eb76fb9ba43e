// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/kangback324/board/internal/models"
	"github.com/kangback324/board/internal/observability"

	"gorm.io/gorm"
)

const postsTable = "posts"

// PostRepository defines the interface for post data operations
type PostRepository interface {
	// Session runs fn with a repository bound to a single pooled connection.
	// The connection is released when fn returns, on every path.
	Session(ctx context.Context, fn func(repo PostRepository) error) error
	List(ctx context.Context) ([]models.PostView, error)
	FindByID(ctx context.Context, id uint) (*models.PostView, error)
	GetPasswordHash(ctx context.Context, id uint) (string, error)
	Create(ctx context.Context, post *models.Post) error
	UpdateContent(ctx context.Context, id uint, title, content string) error
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db    *gorm.DB
	bound bool
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Session(ctx context.Context, fn func(repo PostRepository) error) error {
	if r.bound {
		return fn(r)
	}
	return r.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		return fn(&postRepository{db: conn, bound: true})
	})
}

func (r *postRepository) List(ctx context.Context) ([]models.PostView, error) {
	defer observability.TrackQuery("list", postsTable)()

	posts := make([]models.PostView, 0)
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select(models.PostViewColumns).
		Order("post_id").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (r *postRepository) FindByID(ctx context.Context, id uint) (*models.PostView, error) {
	defer observability.TrackQuery("find_by_id", postsTable)()

	var post models.PostView
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select(models.PostViewColumns).
		Where("post_id = ?", id).
		Take(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("post", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find post %d: %w", id, err)
	}
	return &post, nil
}

func (r *postRepository) GetPasswordHash(ctx context.Context, id uint) (string, error) {
	defer observability.TrackQuery("get_password_hash", postsTable)()

	var hashes []string
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("post_id = ?", id).
		Limit(1).
		Pluck("password", &hashes).Error
	if err != nil {
		return "", fmt.Errorf("get password hash for post %d: %w", id, err)
	}
	if len(hashes) == 0 {
		return "", models.NewNotFoundError("post", id)
	}
	return hashes[0], nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", postsTable)()

	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (r *postRepository) UpdateContent(ctx context.Context, id uint, title, content string) error {
	defer observability.TrackQuery("update", postsTable)()

	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("post_id = ?", id).
		Updates(map[string]interface{}{
			"title":   title,
			"content": content,
		})
	if res.Error != nil {
		return fmt.Errorf("update post %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("post", id)
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", postsTable)()

	res := r.db.WithContext(ctx).
		Where("post_id = ?", id).
		Delete(&models.Post{})
	if res.Error != nil {
		return fmt.Errorf("delete post %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("post", id)
	}
	return nil
}
