package version

import (
	"testing"

	"github.com/fatih/color"
)

func withVersion(t *testing.T, v, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	origNoColor := color.NoColor
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
		color.NoColor = origNoColor
	})
	Version, GitCommit, BuildDate = v, commit, date
	color.NoColor = true
}

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
}

func TestColored(t *testing.T) {
	cases := []struct {
		version string
		want    string
	}{
		{"1.2.3", "1.2.3"},
		{"0.1.0-dev", "0.1.0-dev"},
		{"1.0.0-rc.1", "1.0.0-rc.1"},
		{"nightly", "nightly"},
	}
	for _, tc := range cases {
		withVersion(t, tc.version, "", "")
		if got := Colored(); got != tc.want {
			t.Errorf("Colored(%q) = %q, want %q", tc.version, got, tc.want)
		}
	}
}

func TestBanner(t *testing.T) {
	withVersion(t, "1.2.3", "abc123", "2024-01-15")
	if got, want := Banner(), "refflow 1.2.3 (abc123) built 2024-01-15"; got != want {
		t.Errorf("Banner() = %q, want %q", got, want)
	}
	withVersion(t, "1.2.3", "", "")
	if got, want := Banner(), "refflow 1.2.3"; got != want {
		t.Errorf("Banner() = %q, want %q", got, want)
	}
}

func BenchmarkBanner(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Banner()
	}
}
