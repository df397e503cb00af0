package version

import (
	"runtime/debug"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func saveAndRestore() func() {
	v, c, b := Version, GitCommit, BuildTime
	return func() { Version, GitCommit, BuildTime = v, c, b }
}

func TestFromBuildInfo(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit, BuildTime = "dev", "", ""

	bi := &debug.BuildInfo{
		GoVersion: "go1.26.0",
		Main:      debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	want := Info{
		Version:   "0.3.1",
		GitCommit: "0123456",
		BuildTime: "2026-10-01T12:00:00Z",
		GoVersion: "go1.26.0",
		Dirty:     true,
	}
	if diff := cmp.Diff(want, fromBuildInfo(bi, true)); diff != "" {
		t.Errorf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestFromBuildInfo_LdflagsWin(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit, BuildTime = "1.0.0", "abc1234", "2026-01-15T10:30:00Z"

	bi := &debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "ffffffffff"}},
	}
	got := fromBuildInfo(bi, true)
	if got.Version != "1.0.0" || got.GitCommit != "abc1234" || got.BuildTime != "2026-01-15T10:30:00Z" {
		t.Errorf("ldflags values should win: %+v", got)
	}
}

func TestFromBuildInfo_Unavailable(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit, BuildTime = "dev", "", ""

	if diff := cmp.Diff(Info{Version: "dev"}, fromBuildInfo(nil, false)); diff != "" {
		t.Errorf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "1.2.0", GitCommit: "abc1234", GoVersion: "go1.26.0"}, "1.2.0-abc1234 (go1.26.0)"},
		{Info{Version: "1.2.0", GitCommit: "abc1234", Dirty: true}, "1.2.0-abc1234-dirty"},
	}
	for _, tt := range tests {
		if got := tt.info.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestGet(t *testing.T) {
	if Get().Version == "" {
		t.Error("expected a version")
	}
}
