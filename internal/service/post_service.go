// Package service implements the board's post operations.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kangback324/board/internal/middleware"
	"github.com/kangback324/board/internal/models"
	"github.com/kangback324/board/internal/observability"
	"github.com/kangback324/board/internal/password"
	"github.com/kangback324/board/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// viewAllSegment is the path value selecting every post.
const viewAllSegment = "all"

// ViewTarget selects what ViewPosts returns: every post, or the one post with ID.
type ViewTarget struct {
	all bool
	id  uint
}

// AllPosts targets every post.
func AllPosts() ViewTarget { return ViewTarget{all: true} }

// OnePost targets the post with the given id.
func OnePost(id uint) ViewTarget { return ViewTarget{id: id} }

func (t ViewTarget) All() bool { return t.all }
func (t ViewTarget) ID() uint  { return t.id }

// ParseViewTarget maps a path value to a ViewTarget. "all" selects every post,
// a positive integer selects one post, anything else can never match a post
// and yields a not-found error.
func ParseViewTarget(raw string) (ViewTarget, error) {
	if raw == viewAllSegment {
		return AllPosts(), nil
	}
	id, err := ParsePostID(raw)
	if err != nil {
		return ViewTarget{}, err
	}
	return OnePost(id), nil
}

// ParsePostID parses a post identifier. Identifiers are positive and fit the
// signed 64-bit post_id column; any other value is a not-found error.
func ParsePostID(raw string) (uint, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 || uint64(id) > uint64(^uint(0)) {
		return 0, models.NewNotFoundError("post", raw)
	}
	return uint(id), nil
}

type PostService struct {
	postRepo repository.PostRepository
	hasher   password.Hasher
	now      func() time.Time
}

type CreatePostInput struct {
	Title    string
	Content  string
	Password string
	Author   string
}

type UpdatePostInput struct {
	PostID   uint
	Title    string
	Content  string
	Password string
}

type DeletePostInput struct {
	PostID   uint
	Password string
}

func NewPostService(postRepo repository.PostRepository, hasher password.Hasher) *PostService {
	return &PostService{
		postRepo: postRepo,
		hasher:   hasher,
		now:      time.Now,
	}
}

// ViewPosts returns every post in id order, or a single-element list for
// one post. A missing post is a not-found error, never an empty list.
func (s *PostService) ViewPosts(ctx context.Context, target ViewTarget) (posts []models.PostView, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "ViewPosts",
		attribute.Bool("view.all", target.All()),
		attribute.Int64("post.id", int64(target.ID())),
	)
	defer func() { observability.EndSpan(span, err) }()

	err = s.postRepo.Session(ctx, func(repo repository.PostRepository) error {
		if target.All() {
			list, listErr := repo.List(ctx)
			if listErr != nil {
				return listErr
			}
			posts = list
			return nil
		}

		post, findErr := repo.FindByID(ctx, target.ID())
		if findErr != nil {
			return findErr
		}
		posts = []models.PostView{*post}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return posts, nil
}

// CreatePost hashes the password and stores a new post. The hash is computed
// before a connection is borrowed from the pool.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "CreatePost")
	defer func() { observability.EndSpan(span, err) }()

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return classify(err)
	}

	post := &models.Post{
		Title:     in.Title,
		Content:   in.Content,
		Password:  hash,
		Author:    in.Author,
		CreatedAt: s.now().UTC(),
	}

	err = s.postRepo.Session(ctx, func(repo repository.PostRepository) error {
		return repo.Create(ctx, post)
	})
	if err != nil {
		return classify(err)
	}

	observability.RecordMutation("create")
	span.SetAttributes(attribute.Int64("post.id", int64(post.PostID)))
	middleware.Logger.InfoContext(ctx, "post created", "post_id", post.PostID)
	return nil
}

// UpdatePost overwrites title and content once the password verifies. Author
// and password are immutable.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "UpdatePost",
		attribute.Int64("post.id", int64(in.PostID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	err = s.postRepo.Session(ctx, func(repo repository.PostRepository) error {
		if verr := s.verifyPassword(ctx, repo, in.PostID, in.Password); verr != nil {
			return verr
		}
		return repo.UpdateContent(ctx, in.PostID, in.Title, in.Content)
	})
	if err != nil {
		return classify(err)
	}

	observability.RecordMutation("update")
	middleware.Logger.InfoContext(ctx, "post updated", "post_id", in.PostID)
	return nil
}

// DeletePost removes the post once the password verifies.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) (err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "DeletePost",
		attribute.Int64("post.id", int64(in.PostID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	err = s.postRepo.Session(ctx, func(repo repository.PostRepository) error {
		if verr := s.verifyPassword(ctx, repo, in.PostID, in.Password); verr != nil {
			return verr
		}
		return repo.Delete(ctx, in.PostID)
	})
	if err != nil {
		return classify(err)
	}

	observability.RecordMutation("delete")
	middleware.Logger.InfoContext(ctx, "post deleted", "post_id", in.PostID)
	return nil
}

// verifyPassword fetches the stored hash and compares plain against it. A
// missing post returns not-found without any comparison.
func (s *PostService) verifyPassword(ctx context.Context, repo repository.PostRepository, id uint, plain string) error {
	hash, err := repo.GetPasswordHash(ctx, id)
	if err != nil {
		return err
	}

	err = s.hasher.Verify(hash, plain)
	switch {
	case err == nil:
		observability.RecordVerification(observability.VerificationMatch)
		return nil
	case errors.Is(err, password.ErrMismatch):
		observability.RecordVerification(observability.VerificationMismatch)
		return models.NewPasswordMismatchError()
	default:
		observability.RecordVerification(observability.VerificationError)
		return fmt.Errorf("verify password for post %d: %w", id, err)
	}
}

// classify leaves AppErrors as they are and turns everything else into an
// internal error.
func classify(err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}
