package store

import (
	"context"
	"database/sql"

	"github.com/recoverytrack/apiserver/types"
)

// CommunityRepository handles persistence for forum posts and replies.
type CommunityRepository struct {
	db *sql.DB
}

func NewCommunityRepository(db *sql.DB) *CommunityRepository {
	return &CommunityRepository{db: db}
}

func (r *CommunityRepository) ListPosts(ctx context.Context) ([]types.CommunityPost, error) {
	const query = `
		SELECT id, user_id, title, content, is_anonymous, timestamp
		FROM community_posts
		ORDER BY timestamp DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]types.CommunityPost, 0)
	for rows.Next() {
		var post types.CommunityPost
		if err := rows.Scan(
			&post.ID,
			&post.UserID,
			&post.Title,
			&post.Content,
			&post.IsAnonymous,
			&post.Timestamp,
		); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *CommunityRepository) CreatePost(ctx context.Context, post types.CommunityPost) (types.CommunityPost, error) {
	const query = `
		INSERT INTO community_posts (user_id, title, content, is_anonymous, timestamp)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		post.UserID,
		post.Title,
		post.Content,
		post.IsAnonymous,
		post.Timestamp,
	).Scan(&post.ID); err != nil {
		return types.CommunityPost{}, err
	}
	return post, nil
}

// ListReplies returns replies to postID oldest first.
func (r *CommunityRepository) ListReplies(ctx context.Context, postID int64) ([]types.CommunityReply, error) {
	const query = `
		SELECT id, post_id, user_id, content, is_anonymous, timestamp
		FROM community_replies
		WHERE post_id = $1
		ORDER BY timestamp ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	replies := make([]types.CommunityReply, 0)
	for rows.Next() {
		var reply types.CommunityReply
		if err := rows.Scan(
			&reply.ID,
			&reply.PostID,
			&reply.UserID,
			&reply.Content,
			&reply.IsAnonymous,
			&reply.Timestamp,
		); err != nil {
			return nil, err
		}
		replies = append(replies, reply)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return replies, nil
}

func (r *CommunityRepository) CreateReply(ctx context.Context, reply types.CommunityReply) (types.CommunityReply, error) {
	const query = `
		INSERT INTO community_replies (post_id, user_id, content, is_anonymous, timestamp)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		reply.PostID,
		reply.UserID,
		reply.Content,
		reply.IsAnonymous,
		reply.Timestamp,
	).Scan(&reply.ID); err != nil {
		return types.CommunityReply{}, err
	}
	return reply, nil
}
