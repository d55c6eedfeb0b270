// Package enginetest provides an in-process fake of the forum for tests.
package enginetest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Route is a canned reply for one path
type Route struct {
	Status  int
	Body    string
	Cookies []*http.Cookie
	// Location makes the route answer with a redirect instead of Body
	Location string
	// ContentType replaces the default "text/html; charset=utf-8"
	ContentType string
	// NoContentType sends no Content-Type header at all
	NoContentType bool
}

// Request records what the fake forum received
type Request struct {
	Method string
	Path   string
	Query  string
	Cookie string
	Agent  string
	Form   map[string]string
}

// Forum routes request paths (without the query) to canned pages and records every hit
type Forum struct {
	Server *httptest.Server

	mu       sync.Mutex
	routes   map[string]Route
	requests []Request
}

// NewForum starts a fake forum that is closed when the test ends
func NewForum(t *testing.T) *Forum {
	t.Helper()
	f := &Forum{routes: map[string]Route{}}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// BaseURL is the forum root with a trailing slash, as the client expects
func (f *Forum) BaseURL() string {
	return f.Server.URL + "/"
}

// Handle registers an HTML page with status 200
func (f *Forum) Handle(path, body string) {
	f.HandleRoute(path, Route{Status: http.StatusOK, Body: body})
}

// HandleRoute registers a full route for every method
func (f *Forum) HandleRoute(path string, route Route) {
	f.HandleMethod("", path, route)
}

// HandleMethod registers a route for one method only; it wins over a route for every method
func (f *Forum) HandleMethod(method, path string, route Route) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[routeKey(method, path)] = route
}

func routeKey(method, path string) string {
	return method + " /" + strings.TrimPrefix(path, "/")
}

// Requests returns a copy of the recorded requests
func (f *Forum) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}

// Count returns how many requests hit path with the given method
func (f *Forum) Count(method, path string) int {
	path = "/" + strings.TrimPrefix(path, "/")
	n := 0
	for _, r := range f.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (f *Forum) serve(w http.ResponseWriter, r *http.Request) {
	rec := Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Cookie: r.Header.Get("Cookie"),
		Agent:  r.UserAgent(),
	}
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err == nil {
			rec.Form = map[string]string{}
			for key := range r.PostForm {
				rec.Form[key] = r.PostForm.Get(key)
			}
		}
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	route, ok := f.routes[routeKey(r.Method, r.URL.Path)]
	if !ok {
		route, ok = f.routes[routeKey("", r.URL.Path)]
	}
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	for _, c := range route.Cookies {
		http.SetCookie(w, c)
	}
	if route.Location != "" {
		http.Redirect(w, r, route.Location, http.StatusFound)
		return
	}

	switch {
	case route.NoContentType:
		// a nil value stops net/http from sniffing one
		w.Header()["Content-Type"] = nil
	case route.ContentType != "":
		w.Header().Set("Content-Type", route.ContentType)
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	status := route.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(route.Body))
}
