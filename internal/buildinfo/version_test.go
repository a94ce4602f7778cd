package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestDevVersion(t *testing.T) {
	tests := []struct {
		name     string
		info     *debug.BuildInfo
		expected string
	}{
		{
			name:     "no vcs info returns dev",
			info:     &debug.BuildInfo{},
			expected: "dev",
		},
		{
			name: "with revision only",
			info: &debug.BuildInfo{
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "abc123def456789"},
				},
			},
			expected: "dev-abc123def456",
		},
		{
			name: "with revision and dirty flag",
			info: &debug.BuildInfo{
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "abc123def456789"},
					{Key: "vcs.modified", Value: "true"},
				},
			},
			expected: "dev-abc123def456-dirty",
		},
		{
			name: "empty revision returns dev",
			info: &debug.BuildInfo{
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: ""},
				},
			},
			expected: "dev",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := devVersion(tt.info)
			if got != tt.expected {
				t.Errorf("devVersion() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestVersionNeverEmpty(t *testing.T) {
	if Version() == "" {
		t.Error("Version() returned empty string")
	}
}

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	if !strings.HasPrefix(ua, "nwupd/") {
		t.Errorf("UserAgent() = %q, want nwupd/ prefix", ua)
	}
}
