package history

import "testing"

func TestPathFilter_Matches(t *testing.T) {
	tests := []struct {
		name    string
		include []string
		exclude []string
		path    string
		want    bool
	}{
		{"no filters", nil, nil, "src/main.go", true},
		{"include match", []string{"src/**"}, nil, "src/pkg/main.go", true},
		{"include miss", []string{"src/**"}, nil, "docs/readme.md", false},
		{"exclude wins", []string{"**/*.go"}, []string{"vendor/**"}, "vendor/x/y.go", false},
		{"exclude only", nil, []string{"**/*_test.go"}, "pkg/a_test.go", false},
		{"exclude only keeps others", nil, []string{"**/*_test.go"}, "pkg/a.go", true},
		{"backslashes normalized", []string{"src/**"}, nil, `src\win\file.c`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := newPathFilter(tt.include, tt.exclude)
			if err != nil {
				t.Fatalf("newPathFilter: %v", err)
			}
			if got := f.matches(tt.path); got != tt.want {
				t.Fatalf("matches(%q) = %v, expected %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestPathFilter_MatchesChangeUsesOldPath(t *testing.T) {
	f, err := newPathFilter([]string{"legacy/**"}, nil)
	if err != nil {
		t.Fatalf("newPathFilter: %v", err)
	}
	if !f.matchesChange("modern/a.go", "legacy/a.go") {
		t.Fatalf("rename out of an included directory should match")
	}
	if f.matchesChange("modern/a.go", "") {
		t.Fatalf("unrelated path should not match")
	}
}

func TestNewPathFilter_InvalidPattern(t *testing.T) {
	if _, err := newPathFilter([]string{"src/[a-"}, nil); err == nil {
		t.Fatalf("expected error for invalid include pattern")
	}
	if _, err := newPathFilter(nil, []string{"{a,b"}); err == nil {
		t.Fatalf("expected error for invalid exclude pattern")
	}
}
