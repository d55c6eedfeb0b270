package urlutil

import "testing"

func TestValidate(t *testing.T) {
	valid := []string{
		"http://example.com",
		"https://keyfc.net/bbs/",
	}
	for _, u := range valid {
		if err := ValidateURL(u); err != nil {
			t.Fatalf("expected valid, got error: %v", err)
		}
	}

	invalid := []string{"ftp://example.com", "//example.com", "http:///"}
	for _, u := range invalid {
		if err := ValidateURL(u); err == nil {
			t.Fatalf("expected invalid for %s", u)
		}
	}
}

func TestValidateBaseURL(t *testing.T) {
	if err := ValidateBaseURL("https://keyfc.net/bbs/"); err != nil {
		t.Fatalf("expected valid base, got %v", err)
	}
	if err := ValidateBaseURL("https://keyfc.net/bbs"); err == nil {
		t.Fatal("expected error without trailing slash")
	}
}

func TestResolveURL(t *testing.T) {
	base := "https://keyfc.net/bbs/"
	cases := []struct {
		href string
		want string
	}{
		{"showtopic-1.aspx", "https://keyfc.net/bbs/showtopic-1.aspx"},
		{"archiver/showforum-52.aspx", "https://keyfc.net/bbs/archiver/showforum-52.aspx"},
		{"https://other.example/x", "https://other.example/x"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ResolveURL(base, tc.href); got != tc.want {
			t.Errorf("ResolveURL(%q) = %q, want %q", tc.href, got, tc.want)
		}
	}
}
