package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/keyfc/bbs/internal/reqctx"
	"github.com/keyfc/bbs/internal/ui"
	"github.com/keyfc/bbs/internal/utils/output"
	"github.com/keyfc/bbs/pkg/keyfc"
	"github.com/keyfc/bbs/pkg/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// view is how one page type is written to the terminal and to files
type view[T any] struct {
	table    func(T) output.Table
	text     func(io.Writer, T)
	markdown func(T) (string, error) // nil when the page has no post bodies
}

var notificationFilters = []models.NotificationFilter{
	models.FilterAll,
	models.FilterSpaceComment,
	models.FilterAlbumComment,
	models.FilterPostReply,
	models.FilterTopicAdmin,
}

func pageCommand(use, short string, args cobra.PositionalArgs, run func(cmd *cobra.Command, args []string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE:  run,
	}
	cmd.Flags().StringP("output", "o", "", "Save to a file instead of printing (.json, .csv or .md)")
	rootCmd.AddCommand(cmd)
	return cmd
}

func init() {
	pageCommand("index", "List the boards of the forum", cobra.NoArgs, func(cmd *cobra.Command, args []string) error {
		a := GetApp(cmd)
		fetched, err := a.Client.Index(cmd.Context())
		return emit(cmd, fetched, err, view[*models.IndexPage]{table: indexTable, text: printIndex})
	})

	pageCommand("forum <id>", "List the topics of one board", cobra.ExactArgs(1), func(cmd *cobra.Command, args []string) error {
		a := GetApp(cmd)
		fetched, err := a.Client.Forum(cmd.Context(), args[0])
		return emit(cmd, fetched, err, view[*models.ForumPage]{table: forumTable, text: printForum})
	})

	topicCmd := pageCommand("topic <id>", "Read the posts of one topic", cobra.ExactArgs(1), func(cmd *cobra.Command, args []string) error {
		a := GetApp(cmd)
		baseURL := a.Client.BaseURL()
		v := view[*models.TopicPage]{
			table: topicTable,
			text:  func(w io.Writer, page *models.TopicPage) { printTopic(w, page, baseURL) },
			markdown: func(page *models.TopicPage) (string, error) {
				return topicMarkdown(page, baseURL)
			},
		}
		if asMarkdown, _ := cmd.Flags().GetBool("markdown"); asMarkdown {
			v.text = func(w io.Writer, page *models.TopicPage) {
				md, err := topicMarkdown(page, baseURL)
				if err != nil {
					log.Warn().Err(err).Msg("Failed to render Markdown")
					return
				}
				fmt.Fprint(w, md)
			}
		}
		fetched, err := a.Client.Topic(cmd.Context(), args[0])
		return emit(cmd, fetched, err, v)
	})
	topicCmd.Flags().Bool("markdown", false, "Print posts as Markdown")

	searchCmd := pageCommand("search <keyword>", "Search topic titles", cobra.MinimumNArgs(1), func(cmd *cobra.Command, args []string) error {
		a := GetApp(cmd)
		fetched, err := a.Client.Search(cmd.Context(), strings.Join(args, " "))
		return emit(cmd, fetched, err, view[*models.SearchPage]{table: searchTable, text: printSearch})
	})
	searchCmd.Example = `  $ keyfc search kanon -u alice
  $ keyfc search "little busters" -o results.csv`

	pageCommand("uc", "Show the user center of the account", cobra.NoArgs, func(cmd *cobra.Command, args []string) error {
		a := GetApp(cmd)
		fetched, err := a.Client.UserCenter(cmd.Context())
		return emit(cmd, fetched, err, view[*models.UcPage]{table: ucTable, text: printUserCenter})
	})

	pageCommand("inbox", "List private messages", cobra.NoArgs, func(cmd *cobra.Command, args []string) error {
		a := GetApp(cmd)
		fetched, err := a.Client.Inbox(cmd.Context())
		return emit(cmd, fetched, err, view[*models.InboxPage]{table: inboxTable, text: printInbox})
	})

	noticesCmd := pageCommand("notices", "List system notifications", cobra.NoArgs, func(cmd *cobra.Command, args []string) error {
		a := GetApp(cmd)
		raw, _ := cmd.Flags().GetString("filter")
		filter, err := parseFilter(raw)
		if err != nil {
			return err
		}
		fetched, err := a.Client.Notifications(cmd.Context(), filter)
		return emit(cmd, fetched, err, view[*models.NotificationsPage]{table: noticesTable, text: printNotices})
	})
	noticesCmd.Flags().String("filter", string(models.FilterAll), "Notification type: all, spacecomment, albumcomment, postreply, topicadmin")

	pageCommand("mytopics", "List topics the account started", cobra.NoArgs, func(cmd *cobra.Command, args []string) error {
		a := GetApp(cmd)
		fetched, err := a.Client.MyTopics(cmd.Context())
		return emit(cmd, fetched, err, view[*models.MyTopicsPage]{
			table: func(p *models.MyTopicsPage) output.Table { return myTopicsTable(p.Topics) },
			text: func(w io.Writer, p *models.MyTopicsPage) {
				printMyTopics(w, "My topics", p.Topics, p.Pagination)
			},
		})
	})

	pageCommand("myposts", "List topics the account replied to", cobra.NoArgs, func(cmd *cobra.Command, args []string) error {
		a := GetApp(cmd)
		fetched, err := a.Client.MyPosts(cmd.Context())
		return emit(cmd, fetched, err, view[*models.MyPostsPage]{
			table: func(p *models.MyPostsPage) output.Table { return myTopicsTable(p.Posts) },
			text: func(w io.Writer, p *models.MyPostsPage) {
				printMyTopics(w, "My posts", p.Posts, p.Pagination)
			},
		})
	})

	pageCommand("favourites", "List subscribed topics", cobra.NoArgs, func(cmd *cobra.Command, args []string) error {
		a := GetApp(cmd)
		fetched, err := a.Client.Favourites(cmd.Context())
		return emit(cmd, fetched, err, view[*models.FavouritesPage]{table: favouritesTable, text: printFavourites})
	})
}

func parseFilter(raw string) (models.NotificationFilter, error) {
	for _, f := range notificationFilters {
		if strings.EqualFold(raw, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown notification filter %q", raw)
}

// emit unwraps the fetched page and writes it as a file, JSON or colored text.
// Errors carry the request id of the command.
func emit[T any](cmd *cobra.Command, fetched *keyfc.Fetched[T], err error, v view[T]) error {
	ctx := cmd.Context()
	if err != nil {
		return reqctx.NewRequestError(ctx, err)
	}
	page, err := fetched.Result.Unwrap()
	if err != nil {
		return reqctx.NewRequestError(ctx, err)
	}
	log.Debug().
		Str("command", cmd.Name()).
		Str("mode", fetched.Mode.String()).
		Bool("logged_in_valid", fetched.LoggedInValid).
		Dur("elapsed", reqctx.GetRequestContext(ctx).Elapsed()).
		Msg("Page fetched")

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		if err := save(path, page, v); err != nil {
			return reqctx.NewRequestError(ctx, err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Success("✓ Saved to "+path))
		return nil
	}

	out := cmd.OutOrStdout()
	if a := GetApp(cmd); a != nil && a.Config.JSONLog {
		return output.WriteJSON(out, page)
	}
	if fetched.Mode == keyfc.WithoutCookies {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Warn("(not logged in, showing the public page)"))
	}
	v.text(out, page)
	return nil
}

// save picks the file format from the extension
func save[T any](path string, page T, v view[T]) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return output.SaveJSON(page, path)
	case ".csv":
		return output.SaveCSV(v.table(page), path)
	case ".md":
		if v.markdown == nil {
			return fmt.Errorf("markdown output is only available for topics")
		}
		md, err := v.markdown(page)
		if err != nil {
			return fmt.Errorf("failed to render markdown: %w", err)
		}
		return output.SaveMarkdown(md, path)
	default:
		return fmt.Errorf("unsupported output format %q (use .json, .csv or .md)", ext)
	}
}
