package parser

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/keyfc/bbs/internal/document"
	"github.com/keyfc/bbs/pkg/models"
)

var (
	firstNumberPattern     = regexp.MustCompile(`\d+`)
	newMessageCountPattern = regexp.MustCompile(`\((\d+)\*`)
)

// UserCenter fetches the control panel overview of the logged-in user
func (p *Parser) UserCenter(ctx context.Context, cookies []*http.Cookie) models.Result[*models.UcPage] {
	return load(ctx, p, "usercp", p.url("usercp.aspx"), cookies, p.ParseUserCenter)
}

// ParseUserCenter extracts profile stats, counters and, when every table is
// complete, the permission tables.
func (p *Parser) ParseUserCenter(doc *goquery.Document) models.Result[*models.UcPage] {
	if d := document.DetectDenial(doc); d != nil {
		return models.Denied[*models.UcPage](*d)
	}

	avatar, _ := doc.Find("div.cpuser img.cpavatar").First().Attr("src")
	info := doc.Find("ul.cpinfo")
	page := &models.UcPage{
		PageInfo:       document.PageInfo(doc),
		Username:       document.Text(doc.Find("div.cpuser ul.cprate li strong")),
		Avatar:         avatar,
		Stats:          userStats(doc.Find("div.cpuser ul.cprate li:not(:first-child)")),
		Signature:      signature(doc.Find("div.cpsignature").First()),
		PostCount:      document.Atoi(info.Find(`li:contains("总发帖数") a`).First().Text()),
		DigestCount:    ownInt(info.Find(`li:contains("精华帖数")`).First()),
		NewNoticeCount: ownInt(info.Find(`li:contains("新通知数")`).First()),
		Permissions:    userPermissions(doc),
	}

	script := info.Find(`li:contains("新短消息数") script`).First().Text()
	if n, ok := document.FirstInt(newMessageCountPattern, script); ok {
		page.NewMessageCount = n
	}

	return models.Succeeded(page)
}

func userStats(items *goquery.Selection) models.UserStats {
	var stats models.UserStats
	fields := []struct {
		label string
		dst   *int
	}{
		{"积分", &stats.Score},
		{"经验", &stats.Experience},
		{"人气", &stats.Popularity},
		{"ＫＰ", &stats.KP},
		{"学分", &stats.Credits},
		{"好人卡", &stats.GoodPersonCards},
		{"好感度", &stats.Favorability},
	}

	items.Each(func(i int, li *goquery.Selection) {
		text := strings.TrimSpace(li.Text())
		for _, f := range fields {
			if strings.HasPrefix(text, f.label) {
				*f.dst = document.Atoi(firstNumberPattern.FindString(text))
				return
			}
		}
	})
	return stats
}

// ownInt is the first number among the element's own text nodes
func ownInt(sel *goquery.Selection) int {
	return document.Atoi(firstNumberPattern.FindString(document.OwnText(sel)))
}

// signature drops the leading separator glyph of the signature box
func signature(sel *goquery.Selection) string {
	own := []rune(document.OwnText(sel))
	if len(own) == 0 {
		return ""
	}
	return strings.TrimSpace(string(own[1:]))
}

// userPermissions returns nil if any permission table is missing or has too few cells
func userPermissions(doc *goquery.Document) *models.UserPermissions {
	group := cells(doc.Find("div#list_memcp_main table tbody tr").First())
	basic := cells(doc.Find("table#list_basic tbody tr:last-child").First())
	postTables := doc.Find("div#list_post table")
	post1 := cells(postTables.Eq(0).Find("tbody tr:last-child").First())
	post2 := cells(postTables.Eq(1).Find("tbody tr:last-child").First())
	attach := cells(doc.Find("table#list_attachment tbody tr:last-child").First())

	if len(group) < 6 || len(basic) < 5 || len(post1) < 7 || len(post2) < 6 || len(attach) < 6 {
		return nil
	}

	ug := models.UserGroup{
		Name:                document.Text(group[0].Find("strong")),
		Level:               scriptInt(group[1], fnShowStars),
		Type:                document.Text(group[2]),
		StartingPoints:      document.Atoi(group[3].Text()),
		ReadPermissionLevel: document.Atoi(group[4].Text()),
	}
	if exp := document.Text(group[5]); exp != "-" {
		ug.ExpirationTime = &exp
	}

	return &models.UserPermissions{
		UserGroup: ug,
		BasicPermissions: models.BasicPermissions{
			ForumAccess:          valid(basic[0]),
			ReadPermissionLevel:  document.Atoi(basic[1].Text()),
			ViewUserProfiles:     valid(basic[2]),
			SearchCapability:     models.SearchCapabilityFromCode(scriptInt(basic[3], fnSearchType)),
			MessageInboxCapacity: document.Atoi(basic[4].Text()),
		},
		PostPermissions: models.PostPermissions{
			CreateTopics:             valid(post1[0]),
			ReplyToPosts:             valid(post1[1]),
			CreatePolls:              valid(post1[2]),
			VoteInPolls:              valid(post1[3]),
			PostRewards:              valid(post1[4]),
			PostDebates:              valid(post1[5]),
			PostTransactions:         valid(post1[6]),
			MaxSignatureLength:       document.Atoi(post2[0].Text()),
			UseDiscuzCodeInSignature: valid(post2[1]),
			UseImgCodeInSignature:    valid(post2[2]),
			AllowHTMLPosts:           valid(post2[3]),
			UseHideCode:              valid(post2[4]),
			MaxTopicPrice:            document.Atoi(post2[5].Text()),
		},
		AttachmentPermissions: models.AttachmentPermissions{
			DownloadViewAttachments:  valid(attach[0]),
			UploadAttachments:        valid(attach[1]),
			SetAttachmentPermissions: valid(attach[2]),
			MaxSingleAttachmentSize:  document.Atoi(attach[3].Text()),
			MaxDailyAttachmentSize:   document.Atoi(attach[4].Text()),
			AllowedAttachmentTypes:   splitTypes(attach[5].Text()),
		},
	}
}

func cells(row *goquery.Selection) []*goquery.Selection {
	var out []*goquery.Selection
	row.Find("td").Each(func(i int, td *goquery.Selection) {
		out = append(out, td)
	})
	return out
}

// scriptInt evaluates the cell's inline script; 0 if it has none
func scriptInt(cell *goquery.Selection, fn string) int {
	n, _ := scriptArg(cell.Find("script").First().Text(), fn)
	return n
}

// valid reports a getvalidpic(1) check mark
func valid(cell *goquery.Selection) bool {
	return scriptInt(cell, fnGetValidPic) == 1
}

func splitTypes(text string) []string {
	types := []string{}
	for _, t := range strings.Split(text, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	return types
}
