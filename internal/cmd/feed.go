package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/k0kubun/pp"
	"github.com/urfave/cli/v3"

	"baerhub/internal/app"
	"baerhub/internal/cmd/flags"
	"baerhub/internal/feed"
	"baerhub/internal/notice"
)

var errPostID = errors.New("a numeric post id is required")

var feedCmd = &cli.Command{
	Name:  "feed",
	Usage: "Show the newest posts",
	Flags: []cli.Flag{flags.More, flags.Raw},
	Action: func(ctx context.Context, c *cli.Command) error {
		return withApp(ctx, c, func(ctx context.Context, a *app.App, out *output) error {
			view := a.Feed()
			if err := view.Refresh(ctx); err != nil {
				return out.Fail(err, "Could not load the feed.")
			}
			if c.Bool("more") {
				if _, err := view.LoadMore(ctx); err != nil && !errors.Is(err, feed.ErrEndOfFeed) {
					return out.Fail(err, "Could not load older posts.")
				}
			}

			cards := view.Cards()
			if c.Bool("raw") {
				_, err := pp.Fprintln(out.w, cards)
				return err
			}

			if len(cards) == 0 {
				out.Println("No posts yet.")
				return nil
			}
			for _, card := range cards {
				out.Println(out.renderer.Card(card, view.CanModify(card.Post.ID)))
			}
			if view.HasMore() {
				out.Println("…more with --more")
			}
			return nil
		})
	},
}

var postCmd = &cli.Command{
	Name:      "post",
	Usage:     "Publish a post of up to 280 characters",
	ArgsUsage: "<text>",
	Action: func(ctx context.Context, c *cli.Command) error {
		content := strings.Join(c.Args().Slice(), " ")

		return withApp(ctx, c, func(ctx context.Context, a *app.App, out *output) error {
			card, err := a.Feed().Create(ctx, content)
			if err != nil {
				return out.Fail(err, "Could not post.")
			}
			out.Println(out.renderer.Card(card, true))
			out.Notice(notice.OK(notice.Tweeted))
			return nil
		})
	},
}

var editCmd = &cli.Command{
	Name:      "edit",
	Usage:     "Replace the text of one of your posts",
	ArgsUsage: "<id> <text>",
	Action: func(ctx context.Context, c *cli.Command) error {
		id, err := postID(c)
		if err != nil {
			return err
		}
		content := strings.Join(c.Args().Tail(), " ")

		return withApp(ctx, c, func(ctx context.Context, a *app.App, out *output) error {
			view := a.Feed()
			if err := locate(ctx, view, id); err != nil {
				return out.Fail(err, "Could not load the post.")
			}
			if err := view.SubmitEdit(ctx, id, content); err != nil {
				return out.Fail(err, "Could not update the post.")
			}
			if card, ok := view.Card(id); ok {
				out.Println(out.renderer.Card(card, true))
			}
			out.Notice(notice.OK(notice.TweetUpdated))
			return nil
		})
	},
}

var deleteCmd = &cli.Command{
	Name:      "delete",
	Usage:     "Delete one of your posts",
	ArgsUsage: "<id>",
	Flags:     []cli.Flag{flags.Yes},
	Action: func(ctx context.Context, c *cli.Command) error {
		id, err := postID(c)
		if err != nil {
			return err
		}

		return withApp(ctx, c, func(ctx context.Context, a *app.App, out *output) error {
			view := a.Feed()
			if err := locate(ctx, view, id); err != nil {
				return out.Fail(err, "Could not load the post.")
			}
			if err := view.RequestDelete(id); err != nil {
				return out.Fail(err, "Could not delete the post.")
			}

			if !c.Bool("yes") && !newPrompter(c).Confirm(fmt.Sprintf("Delete post #%d?", id)) {
				view.CancelDelete()
				out.Println("Kept.")
				return nil
			}

			removed, err := view.ConfirmDelete(ctx)
			if err != nil {
				return out.Fail(err, "Could not delete the post.")
			}
			out.Println(out.renderer.Card(removed, false))
			out.Notice(notice.OK(notice.TweetDeleted))
			return nil
		})
	},
}

var likeCmd = &cli.Command{
	Name:      "like",
	Usage:     "Like a post, or take the like back",
	ArgsUsage: "<id>",
	Action: func(ctx context.Context, c *cli.Command) error {
		id, err := postID(c)
		if err != nil {
			return err
		}

		return withApp(ctx, c, func(ctx context.Context, a *app.App, out *output) error {
			view := a.Feed()
			if err := locate(ctx, view, id); err != nil {
				return out.Fail(err, "Could not load the post.")
			}

			card, err := view.ToggleLike(ctx, id)
			if card.Post.ID != 0 {
				out.Println(out.renderer.Card(card, view.CanModify(id)))
			}
			if err != nil {
				return out.Fail(err, "Could not save the like.")
			}
			return nil
		})
	},
}

var commentsCmd = &cli.Command{
	Name:      "comments",
	Usage:     "Show the comments under a post",
	ArgsUsage: "<id>",
	Action: func(ctx context.Context, c *cli.Command) error {
		id, err := postID(c)
		if err != nil {
			return err
		}

		return withApp(ctx, c, func(ctx context.Context, a *app.App, out *output) error {
			comments, err := a.Feed().Comments(ctx, id)
			if err != nil {
				return out.Fail(err, "Could not load the comments.")
			}
			if len(comments) == 0 {
				out.Println("No comments yet.")
				return nil
			}
			for _, comment := range comments {
				out.Println(out.renderer.Comment(comment))
			}
			return nil
		})
	},
}

var commentCmd = &cli.Command{
	Name:      "comment",
	Usage:     "Comment on a post",
	ArgsUsage: "<id> <text>",
	Action: func(ctx context.Context, c *cli.Command) error {
		id, err := postID(c)
		if err != nil {
			return err
		}
		content := strings.Join(c.Args().Tail(), " ")

		return withApp(ctx, c, func(ctx context.Context, a *app.App, out *output) error {
			comment, err := a.Feed().AddComment(ctx, id, content)
			if err != nil {
				return out.Fail(err, "Could not comment.")
			}
			out.Println(out.renderer.Comment(*comment))
			return nil
		})
	},
}

func postID(c *cli.Command) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(c.Args().First(), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errPostID
	}
	return id, nil
}

// locate pages through the feed until id is loaded, so author checks work on older posts.
func locate(ctx context.Context, view *feed.View, id int64) error {
	if err := view.Refresh(ctx); err != nil {
		return err
	}

	for {
		if _, ok := view.Card(id); ok {
			return nil
		}
		if _, err := view.LoadMore(ctx); err != nil {
			if errors.Is(err, feed.ErrEndOfFeed) {
				return feed.ErrUnknownPost
			}
			return err
		}
	}
}
