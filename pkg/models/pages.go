package models

import "time"

// IndexPage is the archiver board index.
type IndexPage struct {
	PageInfo   PageInfo `json:"page_info"`
	Categories []Forum  `json:"categories"`
}

// ForumPage is one archiver board listing.
type ForumPage struct {
	PageInfo    PageInfo     `json:"page_info"`
	Breadcrumbs []Breadcrumb `json:"breadcrumbs"`
	ParentForum *Forum       `json:"parent_forum,omitempty"`
	ThisForum   *Forum       `json:"this_forum,omitempty"`
	Topics      []Topic      `json:"topics"`
	Pagination  Pagination   `json:"pagination"`
}

// TopicPage is one archiver thread page.
type TopicPage struct {
	PageInfo    PageInfo     `json:"page_info"`
	Breadcrumbs []Breadcrumb `json:"breadcrumbs"`
	ThisTopic   *Topic       `json:"this_topic,omitempty"`
	ThisForum   *Forum       `json:"this_forum,omitempty"`
	ParentForum *Forum       `json:"parent_forum,omitempty"`
	Posts       []Post       `json:"posts"`
	Pagination  Pagination   `json:"pagination"`
}

// LastPost is the most recent reply of a search hit.
type LastPost struct {
	Date     *time.Time `json:"date,omitempty"`
	DateText string     `json:"date_text"`
	URL      string     `json:"url"`
	Author   User       `json:"author"`
}

// SearchItem is one row of the search results table.
type SearchItem struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	URL          string     `json:"url"`
	Forum        Forum      `json:"forum"`
	Author       User       `json:"author"`
	PostDate     *time.Time `json:"post_date,omitempty"`
	PostDateText string     `json:"post_date_text"`
	ReplyCount   int        `json:"reply_count"`
	ViewCount    int        `json:"view_count"`
	LastPost     LastPost   `json:"last_post"`
}

// SearchPage is the results page reached after submitting a search.
type SearchPage struct {
	PageInfo     PageInfo     `json:"page_info"`
	TotalResults int          `json:"total_results"`
	Pagination   Pagination   `json:"pagination"`
	Items        []SearchItem `json:"items"`
}

// InboxItem is one private message header.
type InboxItem struct {
	ID       string     `json:"id"`
	Sender   User       `json:"sender"`
	Subject  string     `json:"subject"`
	Snippet  string     `json:"snippet"`
	Date     *time.Time `json:"date,omitempty"`
	DateText string     `json:"date_text"`
	IsRead   bool       `json:"is_read"`
	URL      string     `json:"url"`
}

// InboxPage is the private message inbox.
type InboxPage struct {
	PageInfo     PageInfo    `json:"page_info"`
	Messages     []InboxItem `json:"messages"`
	MessageCount int         `json:"message_count"`
	MessageLimit int         `json:"message_limit"`
	Pagination   Pagination  `json:"pagination"`
}

// NotificationFilter narrows the notification listing.
type NotificationFilter string

const (
	FilterAll          NotificationFilter = "all"
	FilterSpaceComment NotificationFilter = "spacecomment"
	FilterAlbumComment NotificationFilter = "albumcomment"
	FilterPostReply    NotificationFilter = "postreply"
	FilterTopicAdmin   NotificationFilter = "topicadmin"
)

// Notification is one system notice. Topic, user and reason are empty when the notice has none.
type Notification struct {
	Content    string     `json:"content"`
	User       User       `json:"user"`
	TopicID    string     `json:"topic_id,omitempty"`
	TopicTitle string     `json:"topic_title,omitempty"`
	TopicURL   string     `json:"topic_url,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
	DateText   string     `json:"date_text"`
}

// NotificationsPage is the notice listing for one filter.
type NotificationsPage struct {
	PageInfo      PageInfo           `json:"page_info"`
	Filter        NotificationFilter `json:"filter"`
	Notifications []Notification     `json:"notifications"`
	Pagination    Pagination         `json:"pagination"`
}

// MyTopic is a row of the "my topics" and "my posts" tables.
type MyTopic struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	URL              string     `json:"url"`
	ForumName        string     `json:"forum_name"`
	ForumID          string     `json:"forum_id"`
	ForumURL         string     `json:"forum_url"`
	LastPostDate     *time.Time `json:"last_post_date,omitempty"`
	LastPostDateText string     `json:"last_post_date_text"`
	LastPostUser     User       `json:"last_post_user"`
	IsHot            bool       `json:"is_hot"`
}

// MyPost shares the row layout of MyTopic.
type MyPost = MyTopic

// MyTopicsPage lists topics the account started.
type MyTopicsPage struct {
	PageInfo   PageInfo   `json:"page_info"`
	Topics     []MyTopic  `json:"topics"`
	Pagination Pagination `json:"pagination"`
}

// MyPostsPage lists topics the account replied to.
type MyPostsPage struct {
	PageInfo   PageInfo   `json:"page_info"`
	Posts      []MyPost   `json:"posts"`
	Pagination Pagination `json:"pagination"`
}

// Favourite is a subscribed topic.
type Favourite struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	URL      string     `json:"url"`
	Author   User       `json:"author"`
	Date     *time.Time `json:"date,omitempty"`
	DateText string     `json:"date_text"`
}

// FavouritesPage lists subscribed topics.
type FavouritesPage struct {
	PageInfo   PageInfo    `json:"page_info"`
	Favourites []Favourite `json:"favourites"`
	Pagination Pagination  `json:"pagination"`
}
