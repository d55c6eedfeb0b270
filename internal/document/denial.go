package document

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/keyfc/bbs/pkg/models"
)

const (
	forumPermissionPhrase = "没有浏览该版块的权限"
	topicPermissionPhrase = "阅读权限不够"
	unknownIdentity       = "未知用户"
)

var (
	requiredLevelPattern   = regexp.MustCompile(`本主题阅读权限为: (\d+)`)
	currentIdentityPattern = regexp.MustCompile(`您当前的身份 "(.+?)" 阅读权限不够`)
)

type messageBox struct {
	selector string
	errorBox bool
	extract  func(*goquery.Selection) string
}

// Tried in order; the first box with non-blank text wins.
var messageBoxes = []messageBox{
	{"div.msg", false, func(s *goquery.Selection) string { return s.Text() }},
	{"div.msg_inner.error_msg", true, func(s *goquery.Selection) string { return s.Find("p").First().Text() }},
	{"div.msgbox.error_msg", true, func(s *goquery.Selection) string { return s.Find("p").First().Text() }},
}

// DetectDenial returns the site message blocking this page, or nil when the page
// carries no message box. It must run before any content extraction.
func DetectDenial(doc *goquery.Document) *models.Denial {
	if doc == nil {
		return nil
	}
	for _, box := range messageBoxes {
		sel := doc.Find(box.selector).First()
		if sel.Length() == 0 {
			continue
		}
		msg := strings.TrimSpace(box.extract(sel))
		if msg == "" {
			continue
		}
		d := ClassifyDenial(msg, box.errorBox)
		return &d
	}
	return nil
}

// ClassifyDenial derives the denial subtype from known site phrases.
// Messages shown in an error box are permission denials (login required and the like).
func ClassifyDenial(msg string, errorBox bool) models.Denial {
	switch {
	case strings.Contains(msg, topicPermissionPhrase):
		level, ok := FirstInt(requiredLevelPattern, msg)
		if !ok {
			level = -1
		}
		identity := unknownIdentity
		if m := currentIdentityPattern.FindStringSubmatch(msg); m != nil {
			identity = m[1]
		}
		return models.Denial{
			Kind:            models.DenialPermission,
			Message:         msg,
			RequiredLevel:   level,
			CurrentIdentity: identity,
		}
	case strings.Contains(msg, forumPermissionPhrase), errorBox:
		return models.Denial{Kind: models.DenialPermission, Message: msg}
	default:
		return models.Denial{Kind: models.DenialUnknown, Message: msg}
	}
}
