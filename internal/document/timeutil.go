package document

import (
	"strings"
	"time"
)

// Date layouts used across the site. Single-digit month/day/hour elements
// also accept two digits when parsing.
const (
	LayoutTopic        = "2006/1/2 15:04:05"
	LayoutSearch       = "2006.1.2 15:04"
	LayoutControlPanel = "2006-1-2 15:04"
	LayoutFavourites   = "2006/1/2 15:04:05"
)

// SiteLocation is the forum's wall clock (China Standard Time). Timestamps carry no zone.
var SiteLocation = time.FixedZone("CST", 8*60*60)

// ParseTime parses text in the site's zone, returning nil on failure.
func ParseTime(layout, text string) *time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	t, err := time.ParseInLocation(layout, text, SiteLocation)
	if err != nil {
		return nil
	}
	return &t
}
