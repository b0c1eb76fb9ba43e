// Package models contains data structures for the board's domain models.
package models

import "time"

// Post represents a board post as stored in the posts table.
type Post struct {
	PostID  uint   `gorm:"column:post_id;primaryKey;autoIncrement" json:"post_id"`
	Title   string `gorm:"type:text;not null" json:"title"`
	Content string `gorm:"type:text;not null" json:"content"`
	// Password holds the bcrypt hash, never the plaintext.
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	Author    string    `gorm:"type:text;not null" json:"author"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string {
	return "posts"
}

// PostView is the public projection of a post returned by the view endpoint.
type PostView struct {
	PostID  uint   `json:"post_id" example:"1"`
	Title   string `json:"title" example:"T1"`
	Content string `json:"content" example:"C1"`
	Author  string `json:"author" example:"alice"`
}

// PostViewColumns lists the columns selected for PostView.
const PostViewColumns = "post_id, title, content, author"

// MessageResponse is the confirmation body for successful mutations.
type MessageResponse struct {
	Message string `json:"message" example:"Post created"`
}
