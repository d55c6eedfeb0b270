package headers

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	out, err := Parse([]string{"referer: https://keyfc.net/", "Accept-Language:  ja "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := map[string]string{"Referer": "https://keyfc.net/", "Accept-Language": "ja"}
	if diff := cmp.Diff(expected, out); diff != "" {
		t.Fatalf("unexpected parse result (-want +got):\n%s", diff)
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, in := range []string{"BadHeader", ": value", "cookie: dnt=1", "User-Agent: Bot"} {
		if _, err := Parse([]string{in}); err == nil {
			t.Errorf("expected %q to be rejected", in)
		}
	}
}
