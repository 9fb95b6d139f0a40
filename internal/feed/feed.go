package feed

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/samber/lo"

	"baerhub/internal/session"
	"baerhub/pkg/baerapi"
)

const DefaultPageSize = 20

var (
	ErrNotLoggedIn     = errors.New("not logged in")
	ErrLikePending     = errors.New("like already in flight")
	ErrNotAuthor       = errors.New("only the author can change this post")
	ErrUnknownPost     = errors.New("post is not in the feed")
	ErrNoPendingDelete = errors.New("no delete awaiting confirmation")
	ErrEndOfFeed       = errors.New("no older posts")
)

type API interface {
	Tweets(ctx context.Context, query baerapi.FeedQuery) (*baerapi.FeedPage, error)
	CreateTweet(ctx context.Context, content string) (*baerapi.Post, error)
	EditTweet(ctx context.Context, id int64, content string) (*baerapi.Post, error)
	DeleteTweet(ctx context.Context, id int64) error
	Like(ctx context.Context, id int64) error
	Unlike(ctx context.Context, id int64) error
	Comments(ctx context.Context, id int64) ([]baerapi.Comment, error)
	CreateComment(ctx context.Context, id int64, content string) (*baerapi.Comment, error)
}

type Sessions interface {
	Current() session.Session
}

// LikeState tracks the like button of a card.
type LikeState int

const (
	// Committed means the shown count and icon match what the server acknowledged.
	Committed LikeState = iota
	// Pending means a toggle is in flight and the shown values are optimistic.
	Pending
	// RolledBack means the last toggle failed and the committed values were restored.
	RolledBack
)

type Transition int

const (
	NoTransition Transition = iota
	FadeIn
	FadeOut
)

type Card struct {
	Post       baerapi.Post
	Like       LikeState
	Transition Transition
}

type likeSnapshot struct {
	count int
	liked bool
}

// View is the feed page. Network calls are made without holding the lock, so a response may
// land after Reset; such responses are dropped.
type View struct {
	api      API
	sessions Sessions
	logger   *slog.Logger
	pageSize int

	mu            sync.Mutex
	epoch         uint64
	cards         []*Card
	cursor        *int64
	pendingDelete *int64
}

func New(api API, sessions Sessions, logger *slog.Logger) *View {
	logger = lo.Ternary(logger != nil, logger, slog.Default())

	return &View{
		api:      api,
		sessions: sessions,
		logger:   logger.With("component", "feed.View"),
		pageSize: DefaultPageSize,
	}
}

// Cards returns a copy of the visible cards, newest first.
func (v *View) Cards() []Card {
	v.mu.Lock()
	defer v.mu.Unlock()

	return lo.Map(v.cards, func(c *Card, _ int) Card { return *c })
}

func (v *View) Card(id int64) (Card, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	card := v.find(id)
	if card == nil {
		return Card{}, false
	}
	return *card, true
}

// HasMore reports whether LoadMore can fetch an older page.
func (v *View) HasMore() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cursor != nil
}

// Refresh replaces the whole list with the first page.
func (v *View) Refresh(ctx context.Context) error {
	epoch := v.currentEpoch()

	page, err := v.api.Tweets(ctx, baerapi.FeedQuery{Limit: v.pageSize})
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.epoch != epoch {
		return nil
	}

	v.cards = lo.Map(page.Tweets, func(p baerapi.Post, _ int) *Card { return &Card{Post: p} })
	v.cursor = page.NextCursor

	if v.pendingDelete != nil && v.find(*v.pendingDelete) == nil {
		v.pendingDelete = nil
	}

	v.logger.Debug("feed refreshed", "posts", len(v.cards), "more", v.cursor != nil)

	return nil
}

// LoadMore appends the next older page.
func (v *View) LoadMore(ctx context.Context) (int, error) {
	v.mu.Lock()
	epoch := v.epoch
	cursor := v.cursor
	v.mu.Unlock()

	if cursor == nil {
		return 0, ErrEndOfFeed
	}

	page, err := v.api.Tweets(ctx, baerapi.FeedQuery{Limit: v.pageSize, BeforeID: *cursor})
	if err != nil {
		return 0, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.epoch != epoch {
		return 0, nil
	}

	added := 0
	for _, p := range page.Tweets {
		if v.find(p.ID) != nil {
			continue
		}
		v.cards = append(v.cards, &Card{Post: p})
		added++
	}
	v.cursor = page.NextCursor

	return added, nil
}

// Create posts content and puts the new card on top.
func (v *View) Create(ctx context.Context, content string) (Card, error) {
	if !v.sessions.Current().LoggedIn() {
		return Card{}, ErrNotLoggedIn
	}

	content, err := baerapi.ValidateContent(content)
	if err != nil {
		return Card{}, err
	}

	epoch := v.currentEpoch()

	post, err := v.api.CreateTweet(ctx, content)
	if err != nil {
		return Card{}, err
	}

	card := &Card{Post: *post, Transition: FadeIn}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.epoch == epoch && v.find(post.ID) == nil {
		v.cards = slices.Insert(v.cards, 0, card)
	}

	return *card, nil
}

// ToggleLike flips the like optimistically. On failure the card goes back to exactly the
// committed count and icon. A toggle while another is pending is refused.
func (v *View) ToggleLike(ctx context.Context, id int64) (Card, error) {
	if !v.sessions.Current().LoggedIn() {
		return Card{}, ErrNotLoggedIn
	}

	v.mu.Lock()
	card := v.find(id)
	if card == nil {
		v.mu.Unlock()
		return Card{}, ErrUnknownPost
	}
	if card.Like == Pending {
		v.mu.Unlock()
		return *card, ErrLikePending
	}

	snapshot := likeSnapshot{count: card.Post.LikeCount, liked: card.Post.LikedByMe}

	card.Post.LikedByMe = !snapshot.liked
	card.Post.LikeCount = max(0, snapshot.count+lo.Ternary(card.Post.LikedByMe, 1, -1))
	card.Like = Pending
	liked := card.Post.LikedByMe
	v.mu.Unlock()

	var err error
	if liked {
		err = v.api.Like(ctx, id)
	} else {
		err = v.api.Unlike(ctx, id)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	// A refresh during the call replaced the card with server state.
	card = v.find(id)
	if card == nil || card.Like != Pending {
		return Card{}, err
	}

	if err != nil {
		v.logger.Warn("like failed, rolling back", "post", id, "error", err)
		card.Post.LikeCount = snapshot.count
		card.Post.LikedByMe = snapshot.liked
		card.Like = RolledBack
		return *card, err
	}

	card.Like = Committed
	return *card, nil
}

// CanModify reports whether the viewer authored the post. It only gates the UI; the server
// decides.
func (v *View) CanModify(id int64) bool {
	current := v.sessions.Current()
	if !current.LoggedIn() {
		return false
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	card := v.find(id)
	return card != nil && card.Post.Author.Username == current.User.Username
}

// SubmitEdit saves new content and refetches the list.
func (v *View) SubmitEdit(ctx context.Context, id int64, content string) error {
	if !v.CanModify(id) {
		return ErrNotAuthor
	}

	content, err := baerapi.ValidateContent(content)
	if err != nil {
		return err
	}

	if _, err := v.api.EditTweet(ctx, id, content); err != nil {
		return err
	}

	return v.Refresh(ctx)
}

// RequestDelete marks id as awaiting confirmation. Nothing is sent until ConfirmDelete.
func (v *View) RequestDelete(id int64) error {
	if !v.CanModify(id) {
		return ErrNotAuthor
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.pendingDelete = &id

	return nil
}

// PendingDelete returns the post awaiting confirmation, if any.
func (v *View) PendingDelete() (int64, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.pendingDelete == nil {
		return 0, false
	}
	return *v.pendingDelete, true
}

func (v *View) CancelDelete() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pendingDelete = nil
}

// ConfirmDelete deletes the pending post. The removed card is returned with a fade-out
// transition. A failed request leaves the card in place and clears the confirmation.
func (v *View) ConfirmDelete(ctx context.Context) (Card, error) {
	v.mu.Lock()
	if v.pendingDelete == nil {
		v.mu.Unlock()
		return Card{}, ErrNoPendingDelete
	}
	id := *v.pendingDelete
	v.pendingDelete = nil
	v.mu.Unlock()

	if err := v.api.DeleteTweet(ctx, id); err != nil {
		return Card{}, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	removed := Card{Post: baerapi.Post{ID: id}}
	if card := v.find(id); card != nil {
		removed = *card
	}
	removed.Transition = FadeOut

	v.cards = slices.DeleteFunc(v.cards, func(c *Card) bool { return c.Post.ID == id })

	return removed, nil
}

func (v *View) Comments(ctx context.Context, id int64) ([]baerapi.Comment, error) {
	return v.api.Comments(ctx, id)
}

// AddComment posts a comment under id and bumps the card's comment count.
func (v *View) AddComment(ctx context.Context, id int64, content string) (*baerapi.Comment, error) {
	if !v.sessions.Current().LoggedIn() {
		return nil, ErrNotLoggedIn
	}

	content, err := baerapi.ValidateContent(content)
	if err != nil {
		return nil, err
	}

	comment, err := v.api.CreateComment(ctx, id, content)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if card := v.find(id); card != nil {
		card.Post.CommentCount++
	}

	return comment, nil
}

// Reset drops everything cached for the previous session.
func (v *View) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.epoch++
	v.cards = nil
	v.cursor = nil
	v.pendingDelete = nil
}

func (v *View) currentEpoch() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.epoch
}

func (v *View) find(id int64) *Card {
	card, _ := lo.Find(v.cards, func(c *Card) bool { return c.Post.ID == id })
	return card
}
