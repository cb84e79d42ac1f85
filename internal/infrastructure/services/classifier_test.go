package services_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/sophialabs/redirectlint/internal/infrastructure/services"
)

func TestClassifier_DefaultSet(t *testing.T) {
	c, err := services.NewClassifier(nil, "")
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}

	want := []int{400, 404, 405, 406, 408, 409, 410, 421, 500, 501, 502, 503, 504}
	if !reflect.DeepEqual(c.Statuses(), want) {
		t.Errorf("Statuses() = %v, want %v", c.Statuses(), want)
	}

	for _, s := range want {
		if v := c.Classify("https://x.test", s); !v.Broken {
			t.Errorf("status %d should be broken", s)
		}
	}
	for _, s := range []int{200, 204, 301, 302, 401, 403, 429, 505} {
		if v := c.Classify("https://x.test", s); v.Broken {
			t.Errorf("status %d should not be broken (%s)", s, v.Reason)
		}
	}
}

func TestClassifier_CustomSet(t *testing.T) {
	c, err := services.NewClassifier([]int{403}, "")
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}
	if !c.Classify("u", 403).Broken {
		t.Error("403 should be broken with custom set")
	}
	if c.Classify("u", 404).Broken {
		t.Error("404 should not be broken with custom set")
	}
}

func TestClassifier_EmptySetWithRule(t *testing.T) {
	c, err := services.NewClassifier([]int{}, "status >= 500")
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}
	if c.Classify("u", 404).Broken {
		t.Error("404 should pass with empty set and 5xx rule")
	}
	v := c.Classify("u", 503)
	if !v.Broken {
		t.Fatal("503 should match the rule")
	}
	if !strings.Contains(v.Reason, "status >= 500") {
		t.Errorf("reason should name the rule, got %q", v.Reason)
	}
}

func TestClassifier_RuleSeesURL(t *testing.T) {
	c, err := services.NewClassifier([]int{}, `status == 403 && url startsWith "https://legacy."`)
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}
	if !c.Classify("https://legacy.example.org/a", 403).Broken {
		t.Error("expected legacy 403 to be broken")
	}
	if c.Classify("https://www.example.org/a", 403).Broken {
		t.Error("expected non-legacy 403 to pass")
	}
}

func TestNewClassifier_Errors(t *testing.T) {
	tests := []struct {
		name     string
		statuses []int
		rule     string
	}{
		{"status too low", []int{99}, ""},
		{"status too high", []int{600}, ""},
		{"rule syntax", nil, "status >="},
		{"rule not bool", nil, "status + 1"},
		{"unknown variable", nil, "code == 404"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := services.NewClassifier(tt.statuses, tt.rule); err == nil {
				t.Error("expected error")
			}
		})
	}
}
