package models

// UserStats are the point counters shown in the user center header.
type UserStats struct {
	Score           int `json:"score"`
	Experience      int `json:"experience"`
	Popularity      int `json:"popularity"`
	KP              int `json:"kp"`
	Credits         int `json:"credits"`
	GoodPersonCards int `json:"good_person_cards"`
	Favorability    int `json:"favorability"`
}

// SearchCapability is the search level granted to a user group.
type SearchCapability int

const (
	SearchNotAllowed SearchCapability = iota
	SearchTitleAndContent
	SearchTitleOnly
)

// SearchCapabilityFromCode maps the site's searchtype code, defaulting to SearchNotAllowed.
func SearchCapabilityFromCode(code int) SearchCapability {
	switch code {
	case 1:
		return SearchTitleAndContent
	case 2:
		return SearchTitleOnly
	default:
		return SearchNotAllowed
	}
}

func (c SearchCapability) String() string {
	switch c {
	case SearchTitleAndContent:
		return "title_and_content"
	case SearchTitleOnly:
		return "title_only"
	default:
		return "not_allowed"
	}
}

// MarshalText keeps JSON output readable.
func (c SearchCapability) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UserGroup describes the account's group.
type UserGroup struct {
	Name                string  `json:"name"`
	Level               int     `json:"level"`
	Type                string  `json:"type"`
	StartingPoints      int     `json:"starting_points"`
	ReadPermissionLevel int     `json:"read_permission_level"`
	ExpirationTime      *string `json:"expiration_time,omitempty"`
}

type BasicPermissions struct {
	ForumAccess          bool             `json:"forum_access"`
	ReadPermissionLevel  int              `json:"read_permission_level"`
	ViewUserProfiles     bool             `json:"view_user_profiles"`
	SearchCapability     SearchCapability `json:"search_capability"`
	MessageInboxCapacity int              `json:"message_inbox_capacity"`
}

type PostPermissions struct {
	CreateTopics             bool `json:"create_topics"`
	ReplyToPosts             bool `json:"reply_to_posts"`
	CreatePolls              bool `json:"create_polls"`
	VoteInPolls              bool `json:"vote_in_polls"`
	PostRewards              bool `json:"post_rewards"`
	PostDebates              bool `json:"post_debates"`
	PostTransactions         bool `json:"post_transactions"`
	MaxSignatureLength       int  `json:"max_signature_length"`
	UseDiscuzCodeInSignature bool `json:"use_discuz_code_in_signature"`
	UseImgCodeInSignature    bool `json:"use_img_code_in_signature"`
	AllowHTMLPosts           bool `json:"allow_html_posts"`
	UseHideCode              bool `json:"use_hide_code"`
	MaxTopicPrice            int  `json:"max_topic_price"`
}

type AttachmentPermissions struct {
	DownloadViewAttachments  bool     `json:"download_view_attachments"`
	UploadAttachments        bool     `json:"upload_attachments"`
	SetAttachmentPermissions bool     `json:"set_attachment_permissions"`
	MaxSingleAttachmentSize  int      `json:"max_single_attachment_size"`
	MaxDailyAttachmentSize   int      `json:"max_daily_attachment_size"`
	AllowedAttachmentTypes   []string `json:"allowed_attachment_types"`
}

// UserPermissions is the capability snapshot of the user center.
// It is only present when every permissions table parsed.
type UserPermissions struct {
	UserGroup             UserGroup             `json:"user_group"`
	BasicPermissions      BasicPermissions      `json:"basic_permissions"`
	PostPermissions       PostPermissions       `json:"post_permissions"`
	AttachmentPermissions AttachmentPermissions `json:"attachment_permissions"`
}

// UcPage is the user control panel landing page.
type UcPage struct {
	PageInfo        PageInfo         `json:"page_info"`
	Username        string           `json:"username"`
	Avatar          string           `json:"avatar"`
	Stats           UserStats        `json:"stats"`
	Signature       string           `json:"signature"`
	PostCount       int              `json:"post_count"`
	DigestCount     int              `json:"digest_count"`
	NewMessageCount int              `json:"new_message_count"`
	NewNoticeCount  int              `json:"new_notice_count"`
	Permissions     *UserPermissions `json:"permissions,omitempty"`
}
