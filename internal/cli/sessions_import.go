// internal/cli/sessions_import.go
package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/keyfc/bbs/internal/auth"
	"github.com/keyfc/bbs/internal/transport"
	"github.com/keyfc/bbs/internal/ui"
	"github.com/spf13/cobra"
)

// sessionsImportCmd represents the sessions import command
var sessionsImportCmd = &cobra.Command{
	Use:   "import <session-name>",
	Short: "Import forum cookies from your browser",
	Long: `Creates a session from cookies copied out of a browser that is already logged in.

Formats:
- header: a raw Cookie header, as copied from the DevTools network tab
- json: an array of {"name", "value", "domain", "path", "expires"} objects
- netscape: a cookies.txt file as written by curl and browser extensions`,
	Example: `  # Paste a Cookie header
  $ echo 'dnt=userid=1&password=...' | keyfc sessions import alice

  # Import a cookies.txt file
  $ keyfc sessions import alice --format=netscape --file=cookies.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionsImport,
}

func init() {
	sessionsCmd.AddCommand(sessionsImportCmd)

	sessionsImportCmd.Flags().String("format", "header", "Import format: header, json, netscape")
	sessionsImportCmd.Flags().String("file", "", "Read cookies from this file instead of stdin")
}

func runSessionsImport(cmd *cobra.Command, args []string) error {
	a := GetApp(cmd)
	name := args[0]
	format, _ := cmd.Flags().GetString("format")
	file, _ := cmd.Flags().GetString("file")

	var in io.Reader = cmd.InOrStdin()
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", file, err)
		}
		defer f.Close()
		in = f
	}

	cookies, err := parseCookies(format, in)
	if err != nil {
		return fmt.Errorf("failed to import cookies: %w", err)
	}
	if len(cookies) == 0 {
		return fmt.Errorf("no cookies imported")
	}
	if u, err := url.Parse(a.Config.BaseURL); err == nil {
		for _, c := range cookies {
			if c.Domain == "" {
				c.Domain = u.Hostname()
			}
			if c.Path == "" {
				c.Path = "/"
			}
		}
	}

	session := auth.NewSession(name, a.Config.Username, a.Config.BaseURL, cookies)
	if err := a.Sessions.Save(session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.Success(fmt.Sprintf("✓ Session '%s' created with %d cookies", name, len(session.Cookies))))
	if !session.ExpiresAt.IsZero() {
		fmt.Fprintf(out, "  %s %s\n", ui.Bold("Expires:"), session.ExpiresAt.Format(time.RFC1123))
	}
	fmt.Fprintf(out, "\nUse with:\n  keyfc uc --session=%s\n", name)
	return nil
}

// parseCookies reads cookies in one of the import formats
func parseCookies(format string, r io.Reader) ([]*http.Cookie, error) {
	switch format {
	case "header":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		header := strings.TrimSpace(string(data))
		header = strings.TrimPrefix(header, "Cookie:")
		return transport.ParseCookieHeader(header), nil
	case "json":
		var stored []auth.Cookie
		if err := json.NewDecoder(r).Decode(&stored); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		return (&auth.Session{Cookies: stored}).HTTPCookies(), nil
	case "netscape":
		return parseNetscape(r)
	default:
		return nil, fmt.Errorf("unsupported format: %s (use: header, json, netscape)", format)
	}
}

// parseNetscape reads cookies.txt lines: domain, subdomains, path, secure, expiry, name, value
func parseNetscape(r io.Reader) ([]*http.Cookie, error) {
	var cookies []*http.Cookie
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		httpOnly := false
		if rest, ok := strings.CutPrefix(line, "#HttpOnly_"); ok {
			line, httpOnly = rest, true
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 7 {
			fields = strings.Fields(line)
		}
		if len(fields) < 6 {
			continue
		}
		c := &http.Cookie{
			Domain:   strings.TrimPrefix(fields[0], "."),
			Path:     fields[2],
			Secure:   strings.EqualFold(fields[3], "TRUE"),
			Name:     fields[5],
			HttpOnly: httpOnly,
		}
		if len(fields) > 6 {
			c.Value = fields[6]
		}
		if sec, err := strconv.ParseInt(fields[4], 10, 64); err == nil && sec > 0 {
			c.Expires = time.Unix(sec, 0)
		}
		cookies = append(cookies, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cookies, nil
}
