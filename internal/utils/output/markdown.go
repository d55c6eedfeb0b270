package output

import (
	"fmt"
	"os"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	urlutil "github.com/keyfc/bbs/internal/utils/url"
)

// Markdown converts a post body to GitHub-flavored Markdown, resolving relative
// links and images against baseURL.
func Markdown(content, baseURL string) (string, error) {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	converter.AddRules(
		md.Rule{
			Filter: []string{"a"},
			Replacement: func(text string, selec *goquery.Selection, opt *md.Options) *string {
				href, exists := selec.Attr("href")
				if !exists {
					return nil
				}
				var titlePart string
				if title, ok := selec.Attr("title"); ok {
					titlePart = fmt.Sprintf(" %q", title)
				}
				str := fmt.Sprintf("[%s](%s%s)", strings.TrimSpace(selec.Text()), urlutil.ResolveURL(baseURL, href), titlePart)
				return &str
			},
		},
		md.Rule{
			Filter: []string{"img"},
			Replacement: func(text string, selec *goquery.Selection, opt *md.Options) *string {
				src, exists := selec.Attr("src")
				if !exists {
					return nil
				}
				alt, _ := selec.Attr("alt")
				str := fmt.Sprintf("![%s](%s)", alt, urlutil.ResolveURL(baseURL, src))
				return &str
			},
		},
	)

	cleaned, err := CleanHTML(content)
	if err != nil {
		return "", err
	}
	return converter.ConvertString(cleaned)
}

// SaveMarkdown writes already converted Markdown to filepath
func SaveMarkdown(markdown, filepath string) error {
	return os.WriteFile(filepath, []byte(markdown), 0644)
}
