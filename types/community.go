package types

import "time"

// CommunityPost is a forum thread opened by a user.
type CommunityPost struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"userId" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Content     string    `json:"content" db:"content"`
	IsAnonymous bool      `json:"isAnonymous" db:"is_anonymous"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
}

// NewCommunityPost is the insert shape for a community post.
type NewCommunityPost struct {
	UserID      int64
	Title       string
	Content     string
	IsAnonymous bool
}

// CommunityReply is an answer to a community post.
type CommunityReply struct {
	ID          int64     `json:"id" db:"id"`
	PostID      int64     `json:"postId" db:"post_id"`
	UserID      int64     `json:"userId" db:"user_id"`
	Content     string    `json:"content" db:"content"`
	IsAnonymous bool      `json:"isAnonymous" db:"is_anonymous"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
}

// NewCommunityReply is the insert shape for a community reply.
type NewCommunityReply struct {
	PostID      int64
	UserID      int64
	Content     string
	IsAnonymous bool
}
