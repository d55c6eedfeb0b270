package models

import "time"

// PageInfo is the descriptive metadata carried by every forum page.
type PageInfo struct {
	Title       string `json:"title"`
	Keywords    string `json:"keywords"`
	Description string `json:"description"`
}

// Breadcrumb is one entry of the forum navigation trail, root first.
type Breadcrumb struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

// Pagination describes where a page sits in a paged listing.
// Current is always within [1, Total].
type Pagination struct {
	Current      int    `json:"current_page"`
	Total        int    `json:"total_pages"`
	HasNext      bool   `json:"has_next"`
	HasPrevious  bool   `json:"has_previous"`
	NextLink     string `json:"next_link,omitempty"`
	PreviousLink string `json:"previous_link,omitempty"`
}

// SinglePage is the pagination reported when no pager is present.
func SinglePage() Pagination {
	return Pagination{Current: 1, Total: 1}
}

// User references a forum account.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Forum is a category or board. SubForums nest by the indentation the index page uses.
type Forum struct {
	Name      string  `json:"name"`
	ID        string  `json:"id"`
	SubForums []Forum `json:"sub_forums,omitempty"`
}

// Topic is a thread reference. ReplyCount is nil when the page does not state it.
type Topic struct {
	Title      string `json:"title"`
	ID         string `json:"id"`
	ReplyCount *int   `json:"reply_count,omitempty"`
}

// Post is one message inside a topic page.
type Post struct {
	Author       string     `json:"author"`
	PostTime     *time.Time `json:"post_time,omitempty"`
	PostTimeText string     `json:"post_time_text"`
	Content      string     `json:"content"`
	PostNumber   int        `json:"post_number"`
}
