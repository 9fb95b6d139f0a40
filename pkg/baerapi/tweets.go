package baerapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	tweetsPath   = "/tweets"
	tweetPath    = "/tweets/{id}"
	likePath     = "/tweets/{id}/like"
	commentsPath = "/tweets/{id}/comments"
	commentPath  = "/tweets/comments/{id}"
)

// ValidateContent trims content and checks it against MaxContentLength. It is applied before
// any request is made; the server stays the authority.
func ValidateContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ErrEmptyContent
	}

	if n := utf8.RuneCountInString(trimmed); n > MaxContentLength {
		return "", fmt.Errorf("%w: %d characters", ErrContentTooLong, n)
	}

	return trimmed, nil
}

// Tweets returns one page of the feed, newest first. The token is optional here; with it the
// server fills LikedByMe.
func (c *Client) Tweets(ctx context.Context, query FeedQuery) (*FeedPage, error) {
	req, authenticated := c.authed(ctx)

	if query.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(query.Limit))
	}
	if query.BeforeID > 0 {
		req.SetQueryParam("before_id", strconv.FormatInt(query.BeforeID, 10))
	}

	res, err := c.send(req.SetResult(&FeedPage{}), http.MethodGet, tweetsPath, authenticated)
	if err != nil {
		return nil, err
	}

	return res.Result().(*FeedPage), nil
}

func (c *Client) Tweet(ctx context.Context, id int64) (*Post, error) {
	req, authenticated := c.authed(ctx)

	res, err := c.send(
		req.SetPathParam("id", strconv.FormatInt(id, 10)).SetResult(&Post{}),
		http.MethodGet, tweetPath, authenticated,
	)
	if err != nil {
		return nil, err
	}

	return res.Result().(*Post), nil
}

func (c *Client) CreateTweet(ctx context.Context, content string) (*Post, error) {
	content, err := ValidateContent(content)
	if err != nil {
		return nil, err
	}

	req, authenticated := c.authed(ctx)

	res, err := c.send(
		req.SetBody(map[string]string{"content": content}).SetResult(&Post{}),
		http.MethodPost, tweetsPath, authenticated,
	)
	if err != nil {
		return nil, err
	}

	return res.Result().(*Post), nil
}

func (c *Client) EditTweet(ctx context.Context, id int64, content string) (*Post, error) {
	content, err := ValidateContent(content)
	if err != nil {
		return nil, err
	}

	req, authenticated := c.authed(ctx)

	res, err := c.send(
		req.
			SetPathParam("id", strconv.FormatInt(id, 10)).
			SetBody(map[string]string{"content": content}).
			SetResult(&Post{}),
		http.MethodPatch, tweetPath, authenticated,
	)
	if err != nil {
		return nil, err
	}

	return res.Result().(*Post), nil
}

func (c *Client) DeleteTweet(ctx context.Context, id int64) error {
	req, authenticated := c.authed(ctx)

	_, err := c.send(
		req.SetPathParam("id", strconv.FormatInt(id, 10)),
		http.MethodDelete, tweetPath, authenticated,
	)
	return err
}

func (c *Client) Like(ctx context.Context, id int64) error {
	return c.like(ctx, http.MethodPost, id)
}

func (c *Client) Unlike(ctx context.Context, id int64) error {
	return c.like(ctx, http.MethodDelete, id)
}

func (c *Client) like(ctx context.Context, method string, id int64) error {
	req, authenticated := c.authed(ctx)

	_, err := c.send(
		req.SetPathParam("id", strconv.FormatInt(id, 10)),
		method, likePath, authenticated,
	)
	return err
}

func (c *Client) Comments(ctx context.Context, id int64) ([]Comment, error) {
	res, err := c.send(
		c.r(ctx).SetPathParam("id", strconv.FormatInt(id, 10)).SetResult(&[]Comment{}),
		http.MethodGet, commentsPath, false,
	)
	if err != nil {
		return nil, err
	}

	return *res.Result().(*[]Comment), nil
}

func (c *Client) CreateComment(ctx context.Context, id int64, content string) (*Comment, error) {
	content, err := ValidateContent(content)
	if err != nil {
		return nil, err
	}

	req, authenticated := c.authed(ctx)

	res, err := c.send(
		req.
			SetPathParam("id", strconv.FormatInt(id, 10)).
			SetBody(map[string]string{"content": content}).
			SetResult(&Comment{}),
		http.MethodPost, commentsPath, authenticated,
	)
	if err != nil {
		return nil, err
	}

	return res.Result().(*Comment), nil
}

func (c *Client) DeleteComment(ctx context.Context, id int64) error {
	req, authenticated := c.authed(ctx)

	_, err := c.send(
		req.SetPathParam("id", strconv.FormatInt(id, 10)),
		http.MethodDelete, commentPath, authenticated,
	)
	return err
}
