package server

import (
	"github.com/kangback324/board/internal/models"
	"github.com/kangback324/board/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePostRequest is the body of POST /board/create.
type CreatePostRequest struct {
	Title    string `json:"title" form:"title" example:"T1"`
	Content  string `json:"content" form:"content" example:"C1"`
	Password string `json:"password" form:"password" example:"secret"`
	Author   string `json:"author" form:"author" example:"alice"`
}

// EditPostRequest is the body of PUT /board/edit/{post_id}.
type EditPostRequest struct {
	Title    string `json:"title" form:"title" example:"T1"`
	Content  string `json:"content" form:"content" example:"C2"`
	Password string `json:"password" form:"password" example:"secret"`
}

// DeletePostRequest is the body of DELETE /board/delete/{post_id}.
type DeletePostRequest struct {
	Password string `json:"password" form:"password" example:"secret"`
}

// ViewPosts handles GET /board/view/:post_id
// @Summary View posts
// @Description Returns every post when post_id is "all", otherwise a list holding the one matching post. Passwords are never returned.
// @Tags Board
// @Produce json
// @Param post_id path string true "Post ID or \"all\""
// @Success 200 {array} models.PostView
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /board/view/{post_id} [get]
func (s *Server) ViewPosts(c *fiber.Ctx) error {
	target, err := service.ParseViewTarget(c.Params("post_id"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}

	posts, err := s.postService.ViewPosts(c.UserContext(), target)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(posts)
}

// CreatePost handles POST /board/create
// @Summary Create a post
// @Description Stores a new post. The password is kept only as a bcrypt hash and gates later edits and deletes.
// @Tags Board
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body CreatePostRequest true "New post"
// @Success 201 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /board/create [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req CreatePostRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		Title:    req.Title,
		Content:  req.Content,
		Password: req.Password,
		Author:   req.Author,
	})
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.MessageResponse{Message: "Post created"})
}

// EditPost handles PUT /board/edit/:post_id
// @Summary Edit a post
// @Description Overwrites title and content when the password matches. Author and password never change.
// @Tags Board
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param post_id path int true "Post ID"
// @Param request body EditPostRequest true "New title and content with the post password"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /board/edit/{post_id} [put]
func (s *Server) EditPost(c *fiber.Ctx) error {
	id, err := s.parsePostID(c)
	if err != nil {
		return nil
	}

	var req EditPostRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	err = s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		PostID:   id,
		Title:    req.Title,
		Content:  req.Content,
		Password: req.Password,
	})
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(models.MessageResponse{Message: "Post updated"})
}

// DeletePost handles DELETE /board/delete/:post_id
// @Summary Delete a post
// @Description Removes the post when the password matches.
// @Tags Board
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param post_id path int true "Post ID"
// @Param request body DeletePostRequest true "Post password"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /board/delete/{post_id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parsePostID(c)
	if err != nil {
		return nil
	}

	var req DeletePostRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	err = s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		PostID:   id,
		Password: req.Password,
	})
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
