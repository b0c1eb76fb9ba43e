// Package seed fills the board with fake posts for local development and
// demos. Posts go through the post service, so they are hashed and stored
// exactly like posts created over HTTP.
package seed

import (
	"context"
	"fmt"

	"github.com/kangback324/board/internal/middleware"
	"github.com/kangback324/board/internal/models"
	"github.com/kangback324/board/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DefaultPassword is the password given to every seeded post unless overridden.
const DefaultPassword = "password123"

// Seeder creates fake posts.
type Seeder struct {
	db    *gorm.DB
	posts *service.PostService
	faker *gofakeit.Faker
}

// NewSeeder returns a Seeder. A zero seed picks a random one.
func NewSeeder(db *gorm.DB, posts *service.PostService, seed int64) *Seeder {
	return &Seeder{db: db, posts: posts, faker: gofakeit.New(seed)}
}

// BuildPost returns fake input for a single post.
func (s *Seeder) BuildPost(password string) service.CreatePostInput {
	return service.CreatePostInput{
		Title:    s.faker.Sentence(5),
		Content:  s.faker.Paragraph(1, 3, 8, "\n"),
		Password: password,
		Author:   s.faker.Username(),
	}
}

// SeedPosts creates n posts that all share password.
func (s *Seeder) SeedPosts(ctx context.Context, n int, password string) error {
	if password == "" {
		password = DefaultPassword
	}
	for i := 0; i < n; i++ {
		if err := s.posts.CreatePost(ctx, s.BuildPost(password)); err != nil {
			return fmt.Errorf("seed post %d/%d: %w", i+1, n, err)
		}
	}
	middleware.Logger.InfoContext(ctx, "seeded posts", "count", n)
	return nil
}

// ClearAll removes every post. Identifiers keep increasing afterwards.
func (s *Seeder) ClearAll(ctx context.Context) error {
	res := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.Post{})
	if res.Error != nil {
		return fmt.Errorf("clear posts: %w", res.Error)
	}
	middleware.Logger.InfoContext(ctx, "cleared posts", "count", res.RowsAffected)
	return nil
}
