package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/keyfc/bbs/internal/ui"
	"github.com/keyfc/bbs/internal/utils/output"
	"github.com/keyfc/bbs/pkg/models"
)

const (
	reset    = ui.ColorReset
	bold     = ui.ColorBold
	dim      = ui.ColorDim
	yellow   = ui.ColorYellow
	red      = ui.ColorRed
	boldCyan = ui.ColorBold + ui.ColorCyan
)

const timeLayout = "2006-01-02 15:04"

// when prefers the parsed time and falls back to the page's own text
func when(t *time.Time, text string) string {
	if t != nil {
		return t.Format(timeLayout)
	}
	return text
}

func flag(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func printHeader(w io.Writer, title string, p models.Pagination) {
	fmt.Fprintf(w, "%s%s%s", boldCyan, title, reset)
	if p.Total > 1 {
		fmt.Fprint(w, " "+ui.Dim(fmt.Sprintf("(page %d/%d)", p.Current, p.Total)))
	}
	fmt.Fprintln(w)
}

func indexTable(page *models.IndexPage) output.Table {
	t := output.Table{Header: []string{"id", "name", "parent_id"}}
	var walk func(forums []models.Forum, parent string)
	walk = func(forums []models.Forum, parent string) {
		for _, f := range forums {
			t.Rows = append(t.Rows, []string{f.ID, f.Name, parent})
			walk(f.SubForums, f.ID)
		}
	}
	walk(page.Categories, "")
	return t
}

func printIndex(w io.Writer, page *models.IndexPage) {
	printHeader(w, page.PageInfo.Title, models.SinglePage())
	var walk func(forums []models.Forum, depth int)
	walk = func(forums []models.Forum, depth int) {
		for _, f := range forums {
			fmt.Fprintf(w, "%s%s %s[%s]%s\n", strings.Repeat("  ", depth), f.Name, dim, f.ID, reset)
			walk(f.SubForums, depth+1)
		}
	}
	walk(page.Categories, 0)
}

func forumTable(page *models.ForumPage) output.Table {
	t := output.Table{Header: []string{"id", "title", "replies"}}
	for _, topic := range page.Topics {
		replies := ""
		if topic.ReplyCount != nil {
			replies = strconv.Itoa(*topic.ReplyCount)
		}
		t.Rows = append(t.Rows, []string{topic.ID, topic.Title, replies})
	}
	return t
}

func printForum(w io.Writer, page *models.ForumPage) {
	title := page.PageInfo.Title
	if page.ThisForum != nil {
		title = page.ThisForum.Name
	}
	printHeader(w, title, page.Pagination)
	for _, topic := range page.Topics {
		replies := ""
		if topic.ReplyCount != nil {
			replies = " " + ui.Dim(fmt.Sprintf("(%d replies)", *topic.ReplyCount))
		}
		fmt.Fprintf(w, "%s%8s%s  %s%s\n", yellow, topic.ID, reset, topic.Title, replies)
	}
}

func topicTable(page *models.TopicPage) output.Table {
	t := output.Table{Header: []string{"number", "author", "time", "content"}}
	for _, p := range page.Posts {
		t.Rows = append(t.Rows, []string{strconv.Itoa(p.PostNumber), p.Author, when(p.PostTime, p.PostTimeText), p.Content})
	}
	return t
}

// topicMarkdown renders every post as a section with its body converted from HTML
func topicMarkdown(page *models.TopicPage, baseURL string) (string, error) {
	var b strings.Builder
	title := page.PageInfo.Title
	if page.ThisTopic != nil {
		title = page.ThisTopic.Title
	}
	fmt.Fprintf(&b, "# %s\n", title)
	for _, p := range page.Posts {
		body, err := output.Markdown(p.Content, baseURL)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\n## #%d %s (%s)\n\n%s\n", p.PostNumber, p.Author, when(p.PostTime, p.PostTimeText), body)
	}
	return b.String(), nil
}

func printTopic(w io.Writer, page *models.TopicPage, baseURL string) {
	title := page.PageInfo.Title
	if page.ThisTopic != nil {
		title = page.ThisTopic.Title
	}
	printHeader(w, title, page.Pagination)
	for _, p := range page.Posts {
		fmt.Fprintf(w, "\n%s#%d%s %s%s%s %s%s%s\n", yellow, p.PostNumber, reset, bold, p.Author, reset, dim, when(p.PostTime, p.PostTimeText), reset)
		if text, err := output.Markdown(p.Content, baseURL); err == nil {
			fmt.Fprintln(w, text)
		}
	}
}

func searchTable(page *models.SearchPage) output.Table {
	t := output.Table{Header: []string{"id", "title", "forum", "author", "post_date", "replies", "views", "last_post_author", "last_post_date"}}
	for _, it := range page.Items {
		t.Rows = append(t.Rows, []string{
			it.ID, it.Title, it.Forum.Name, it.Author.Name,
			when(it.PostDate, it.PostDateText),
			strconv.Itoa(it.ReplyCount), strconv.Itoa(it.ViewCount),
			it.LastPost.Author.Name, when(it.LastPost.Date, it.LastPost.DateText),
		})
	}
	return t
}

func printSearch(w io.Writer, page *models.SearchPage) {
	printHeader(w, fmt.Sprintf("%d results", page.TotalResults), page.Pagination)
	for _, it := range page.Items {
		fmt.Fprintf(w, "%s%8s%s  %s %s[%s, %s]%s\n", yellow, it.ID, reset, it.Title, dim, it.Forum.Name, it.Author.Name, reset)
	}
}

func ucTable(page *models.UcPage) output.Table {
	s := page.Stats
	rows := [][]string{
		{"username", page.Username},
		{"score", strconv.Itoa(s.Score)},
		{"experience", strconv.Itoa(s.Experience)},
		{"popularity", strconv.Itoa(s.Popularity)},
		{"kp", strconv.Itoa(s.KP)},
		{"credits", strconv.Itoa(s.Credits)},
		{"good_person_cards", strconv.Itoa(s.GoodPersonCards)},
		{"favorability", strconv.Itoa(s.Favorability)},
		{"posts", strconv.Itoa(page.PostCount)},
		{"digests", strconv.Itoa(page.DigestCount)},
		{"new_messages", strconv.Itoa(page.NewMessageCount)},
		{"new_notices", strconv.Itoa(page.NewNoticeCount)},
	}
	if page.Permissions != nil {
		rows = append(rows, []string{"user_group", page.Permissions.UserGroup.Name})
	}
	return output.Table{Header: []string{"field", "value"}, Rows: rows}
}

func printUserCenter(w io.Writer, page *models.UcPage) {
	printHeader(w, page.Username, models.SinglePage())
	for _, row := range ucTable(page).Rows[1:] {
		fmt.Fprintf(w, "  %s%-18s%s %s\n", dim, row[0], reset, row[1])
	}
	if page.Signature != "" {
		fmt.Fprintf(w, "\n%s\n", page.Signature)
	}
}

func inboxTable(page *models.InboxPage) output.Table {
	t := output.Table{Header: []string{"id", "sender", "subject", "date", "read"}}
	for _, m := range page.Messages {
		t.Rows = append(t.Rows, []string{m.ID, m.Sender.Name, m.Subject, when(m.Date, m.DateText), flag(m.IsRead)})
	}
	return t
}

func printInbox(w io.Writer, page *models.InboxPage) {
	printHeader(w, fmt.Sprintf("Inbox %d/%d", page.MessageCount, page.MessageLimit), page.Pagination)
	for _, m := range page.Messages {
		marker := yellow + "●" + reset
		if m.IsRead {
			marker = " "
		}
		fmt.Fprintf(w, "%s %s %s%s, %s%s\n", marker, m.Subject, dim, m.Sender.Name, when(m.Date, m.DateText), reset)
	}
}

func noticesTable(page *models.NotificationsPage) output.Table {
	t := output.Table{Header: []string{"date", "user", "topic_id", "topic_title", "reason", "content"}}
	for _, n := range page.Notifications {
		t.Rows = append(t.Rows, []string{when(n.Date, n.DateText), n.User.Name, n.TopicID, n.TopicTitle, n.Reason, n.Content})
	}
	return t
}

func printNotices(w io.Writer, page *models.NotificationsPage) {
	printHeader(w, "Notifications", page.Pagination)
	for _, n := range page.Notifications {
		fmt.Fprintf(w, "%s %s\n", ui.Dim(when(n.Date, n.DateText)), n.Content)
	}
}

func myTopicsTable(topics []models.MyTopic) output.Table {
	t := output.Table{Header: []string{"id", "title", "forum", "last_post_user", "last_post_date", "hot"}}
	for _, it := range topics {
		t.Rows = append(t.Rows, []string{it.ID, it.Title, it.ForumName, it.LastPostUser.Name, when(it.LastPostDate, it.LastPostDateText), flag(it.IsHot)})
	}
	return t
}

func printMyTopics(w io.Writer, title string, topics []models.MyTopic, p models.Pagination) {
	printHeader(w, title, p)
	for _, it := range topics {
		hot := ""
		if it.IsHot {
			hot = red + " hot" + reset
		}
		fmt.Fprintf(w, "%s%8s%s  %s%s %s[%s]%s\n", yellow, it.ID, reset, it.Title, hot, dim, it.ForumName, reset)
	}
}

func favouritesTable(page *models.FavouritesPage) output.Table {
	t := output.Table{Header: []string{"id", "title", "author", "date"}}
	for _, f := range page.Favourites {
		t.Rows = append(t.Rows, []string{f.ID, f.Title, f.Author.Name, when(f.Date, f.DateText)})
	}
	return t
}

func printFavourites(w io.Writer, page *models.FavouritesPage) {
	printHeader(w, "Favourites", page.Pagination)
	for _, f := range page.Favourites {
		fmt.Fprintf(w, "%s%8s%s  %s %s[%s]%s\n", yellow, f.ID, reset, f.Title, dim, f.Author.Name, reset)
	}
}
