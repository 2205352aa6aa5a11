package gitsource

import (
	"path/filepath"
	"testing"
)

func TestLocalPath(t *testing.T) {
	base := "repos"
	testCases := []struct {
		name     string
		url      string
		expected string
		wantErr  bool
	}{
		{name: "https", url: "https://github.com/example/notes.git", expected: filepath.Join(base, "github.com", "example", "notes")},
		{name: "https without suffix", url: "https://gitlab.com/team/deck", expected: filepath.Join(base, "gitlab.com", "team", "deck")},
		{name: "scp-like ssh", url: "git@github.com:example/notes.git", expected: filepath.Join(base, "github.com", "example", "notes")},
		{name: "ssh scheme", url: "ssh://git@github.com/example/notes.git", expected: filepath.Join(base, "github.com", "example", "notes")},
		{name: "path escape is contained", url: "https://host.example/../../etc", expected: filepath.Join(base, "host.example", "etc")},
		{name: "plain directory", url: "/home/me/notes", wantErr: true},
		{name: "no repository path", url: "https://github.com/", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LocalPath(base, tc.url)
			if tc.wantErr {
				if err == nil {
					t.Errorf("Expected an error for %q, but got path %q", tc.url, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("LocalPath() returned an unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("Expected path '%s', but got '%s'", tc.expected, got)
			}
		})
	}
}

func TestIsURL(t *testing.T) {
	testCases := map[string]bool{
		"https://github.com/example/notes.git": true,
		"git@github.com:example/notes.git":    true,
		"ssh://git@github.com/example/notes":  true,
		"/home/me/notes":                      false,
		"notes":                               false,
		"./relative/notes":                    false,
	}
	for path, expected := range testCases {
		if got := IsURL(path); got != expected {
			t.Errorf("IsURL(%q): expected %v, but got %v", path, expected, got)
		}
	}
}
