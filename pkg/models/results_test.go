package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestResult_Unwrap_Denied(t *testing.T) {
	tests := []struct {
		name   string
		result Result[int]
	}{
		{name: "permission", result: Denied[int](Denial{Kind: DenialPermission, Message: "阅读权限不够", RequiredLevel: 50})},
		{name: "unknown", result: Denied[int](Denial{Kind: DenialUnknown, Message: "该主题不存在"})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.result.Unwrap()
			if !errors.Is(err, ErrDenied) {
				t.Errorf("expected ErrDenied, got %v", err)
			}
			if !errors.Is(fmt.Errorf("topic 9: %w", err), ErrDenied) {
				t.Error("a wrapped denial should still match")
			}
			if errors.Is(err, ErrAuth) {
				t.Error("a denial is not a login failure")
			}
		})
	}
}

func TestResult_Unwrap_FailureIsNotDenial(t *testing.T) {
	_, err := Failed[int]("forum", errors.New("boom")).Unwrap()
	if err == nil || errors.Is(err, ErrDenied) {
		t.Errorf("expected a plain failure, got %v", err)
	}
}

func TestSinglePage(t *testing.T) {
	p := SinglePage()
	p.Current = 7
	if got := SinglePage(); got.Current != 1 || got.Total != 1 {
		t.Errorf("SinglePage changed to %+v", got)
	}
}
