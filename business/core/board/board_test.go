package board_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ardanlabs/chainlogger/business/core/board"
	"github.com/ardanlabs/chainlogger/foundation/validate"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestPosts(t *testing.T) {
	t.Log("Given the need to work with board posts.")
	{
		ctx := context.Background()
		core := board.NewCore(zap.NewNop().Sugar(), newMemStore())
		userID := uuid.New()
		now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

		t.Logf("\tTest 0:\tWhen posting markup.")
		{
			np := board.NewPost{
				Title:   "<i>Hello</i>",
				Content: `<script>alert("x")</script><b>bold</b> <a href="http://x">link</a>`,
			}

			post, err := core.CreatePost(ctx, userID, np, now)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to create the post: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to create the post.", success)

			if post.Title != "<i>Hello</i>" {
				t.Fatalf("\t%s\tTest 0:\tShould keep allowed tags, got %q.", failed, post.Title)
			}
			t.Logf("\t%s\tTest 0:\tShould keep allowed tags.", success)

			if strings.Contains(post.Content, "<script") || strings.Contains(post.Content, "<a") || !strings.Contains(post.Content, "<b>bold</b>") {
				t.Fatalf("\t%s\tTest 0:\tShould strip other tags, got %q.", failed, post.Content)
			}
			t.Logf("\t%s\tTest 0:\tShould strip other tags.", success)
		}

		t.Logf("\tTest 1:\tWhen posting without a title.")
		{
			_, err := core.CreatePost(ctx, userID, board.NewPost{Content: "body"}, now)
			if !validate.IsFieldErrors(err) {
				t.Fatalf("\t%s\tTest 1:\tShould get field errors, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould get field errors.", success)
		}

		t.Logf("\tTest 2:\tWhen paging through 12 posts.")
		{
			for i := 0; i < 11; i++ {
				np := board.NewPost{Title: "t", Content: "c"}
				if _, err := core.CreatePost(ctx, userID, np, now.Add(time.Duration(i+1)*time.Minute)); err != nil {
					t.Fatalf("\t%s\tTest 2:\tShould be able to create post %d: %v", failed, i, err)
				}
			}

			posts, page, err := core.QueryPage(ctx, 50)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to query: %v", failed, err)
			}

			if page.Number != 2 || page.TotalPages != 2 || len(posts) != 2 {
				t.Fatalf("\t%s\tTest 2:\tShould clamp to page 2 with 2 posts, got page %d with %d.", failed, page.Number, len(posts))
			}
			t.Logf("\t%s\tTest 2:\tShould clamp to page 2 with 2 posts.", success)

			first, _, _ := core.QueryPage(ctx, 1)
			if !first[0].DateCreated.After(first[1].DateCreated) {
				t.Fatalf("\t%s\tTest 2:\tShould list the newest post first.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould list the newest post first.", success)
		}
	}
}

func TestComments(t *testing.T) {
	t.Log("Given the need to work with comments.")
	{
		ctx := context.Background()
		store := newMemStore()
		core := board.NewCore(zap.NewNop().Sugar(), store)
		userID := uuid.New()
		now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

		post, err := core.CreatePost(ctx, userID, board.NewPost{Title: "t", Content: "c"}, now)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create the post: %v", failed, err)
		}

		t.Logf("\tTest 0:\tWhen commenting twice.")
		{
			for i, content := range []string{"second", "first"} {
				at := now.Add(time.Duration(2-i) * time.Minute)
				if _, err := core.AddComment(ctx, post.ID, userID, board.NewComment{Content: content}, at); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to comment: %v", failed, err)
				}
			}

			_, cmts, err := core.QueryPost(ctx, post.ID)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to query the post: %v", failed, err)
			}

			if len(cmts) != 2 || cmts[0].Content != "first" {
				t.Fatalf("\t%s\tTest 0:\tShould list the oldest comment first, got %+v.", failed, cmts)
			}
			t.Logf("\t%s\tTest 0:\tShould list the oldest comment first.", success)
		}

		t.Logf("\tTest 1:\tWhen commenting on a missing post.")
		{
			_, err := core.AddComment(ctx, uuid.New(), userID, board.NewComment{Content: "hi"}, now)
			if !errors.Is(err, board.ErrNotFound) {
				t.Fatalf("\t%s\tTest 1:\tShould get not found, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould get not found.", success)
		}

		t.Logf("\tTest 2:\tWhen deleting a comment.")
		{
			_, cmts, _ := core.QueryPost(ctx, post.ID)

			postID, err := core.DeleteComment(ctx, cmts[0].ID)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to delete: %v", failed, err)
			}
			if postID != post.ID {
				t.Fatalf("\t%s\tTest 2:\tShould return the parent post.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould return the parent post.", success)

			if _, err := core.DeleteComment(ctx, cmts[0].ID); !errors.Is(err, board.ErrCommentNotFound) {
				t.Fatalf("\t%s\tTest 2:\tShould not find it again, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould not find it again.", success)
		}

		t.Logf("\tTest 3:\tWhen deleting the post.")
		{
			if err := core.DeletePost(ctx, post.ID); err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould be able to delete: %v", failed, err)
			}

			all, _ := core.QueryAllComments(ctx)
			if len(all) != 0 {
				t.Fatalf("\t%s\tTest 3:\tShould delete its comments, got %d left.", failed, len(all))
			}
			t.Logf("\t%s\tTest 3:\tShould delete its comments.", success)

			if err := core.DeletePost(ctx, post.ID); !errors.Is(err, board.ErrNotFound) {
				t.Fatalf("\t%s\tTest 3:\tShould not find it again, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 3:\tShould not find it again.", success)
		}
	}
}

// =============================================================================

type memStore struct {
	mu    *sync.Mutex
	posts map[uuid.UUID]board.Post
	cmts  map[uuid.UUID]board.Comment
}

func newMemStore() memStore {
	return memStore{
		mu:    &sync.Mutex{},
		posts: make(map[uuid.UUID]board.Post),
		cmts:  make(map[uuid.UUID]board.Comment),
	}
}

func (m memStore) WithinTran(ctx context.Context, fn func(s board.Storer) error) error {
	return fn(m)
}

func (m memStore) CreatePost(ctx context.Context, post board.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.posts[post.ID] = post
	return nil
}

func (m memStore) QueryPostByID(ctx context.Context, postID uuid.UUID) (board.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	post, exists := m.posts[postID]
	if !exists {
		return board.Post{}, board.ErrNotFound
	}
	return post, nil
}

func (m memStore) QueryPosts(ctx context.Context, offset int, limit int) ([]board.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var posts []board.Post
	for _, post := range m.posts {
		posts = append(posts, post)
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].DateCreated.After(posts[j].DateCreated)
	})

	if offset >= len(posts) {
		return nil, nil
	}
	end := offset + limit
	if end > len(posts) {
		end = len(posts)
	}
	return posts[offset:end], nil
}

func (m memStore) CountPosts(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.posts), nil
}

func (m memStore) DeletePost(ctx context.Context, postID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.posts, postID)
	return nil
}

func (m memStore) CreateComment(ctx context.Context, cmt board.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cmts[cmt.ID] = cmt
	return nil
}

func (m memStore) QueryCommentByID(ctx context.Context, commentID uuid.UUID) (board.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmt, exists := m.cmts[commentID]
	if !exists {
		return board.Comment{}, board.ErrCommentNotFound
	}
	return cmt, nil
}

func (m memStore) QueryComments(ctx context.Context, postID uuid.UUID) ([]board.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var cmts []board.Comment
	for _, cmt := range m.cmts {
		if cmt.PostID == postID {
			cmts = append(cmts, cmt)
		}
	}
	sort.Slice(cmts, func(i, j int) bool {
		return cmts[i].DateCreated.Before(cmts[j].DateCreated)
	})
	return cmts, nil
}

func (m memStore) QueryAllComments(ctx context.Context) ([]board.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var cmts []board.Comment
	for _, cmt := range m.cmts {
		cmts = append(cmts, cmt)
	}
	return cmts, nil
}

func (m memStore) DeleteComments(ctx context.Context, postID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, cmt := range m.cmts {
		if cmt.PostID == postID {
			delete(m.cmts, id)
		}
	}
	return nil
}

func (m memStore) DeleteComment(ctx context.Context, commentID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.cmts, commentID)
	return nil
}
