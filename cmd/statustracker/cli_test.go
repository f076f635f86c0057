package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/statustracker/internal/config"
	"github.com/hpungsan/statustracker/internal/tracker"
)

const steveUUID = "069a79f4-44e9-4726-a5be-fca90e38aaf5"

// fakeSource serves a single tracked hour: one staff member online all hour
// and steve (index 1) online from minute 10 to minute 40.
type fakeSource struct{}

func (fakeSource) NameMap(context.Context) tracker.NameMap {
	return tracker.NameMap{"00000000-0000-0000-0000-000000000000", steveUUID}
}

func (fakeSource) Hours(_ context.Context, from, _ tracker.HourTimestamp) []tracker.Hour {
	h := tracker.Hour{ID: from, TrackedMins: tracker.FullHour(), Deltas: tracker.Records{}}
	h.Deltas["0"] = tracker.Snapshot{All: []int{0}, Categories: map[tracker.Category][]int{"Staff": {0}}}
	h.Deltas["10"] = tracker.Delta{Joined: []int{1}}
	h.Deltas["40"] = tracker.Delta{Left: []int{1}}
	return []tracker.Hour{h}
}

func (fakeSource) RollingAverage(_ context.Context, from, to tracker.MinuteTimestamp, _ tracker.RollingAverage) []*tracker.RollingAvgRecord {
	recs := make([]*tracker.RollingAvgRecord, 0, int(to-from)+1)
	for m := from; m <= to; m++ {
		recs = append(recs, &tracker.RollingAvgRecord{All: 1})
	}
	return recs
}

func (fakeSource) PlayerUUID(_ context.Context, name string) (string, bool) {
	if name == "steve" {
		return steveUUID, true
	}
	return "", false
}

func (fakeSource) PlayerIntervals(context.Context, string, tracker.MinuteTimestamp, tracker.MinuteTimestamp) []tracker.Interval {
	return nil
}

var hourStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// testRuntime returns a runtime over fakeSource whose clock sits at the end
// of the fixture hour, so a "-59m" lookback covers exactly that hour.
func testRuntime() (*runtime, *bytes.Buffer) {
	var out bytes.Buffer
	return &runtime{
		cfg: config.DefaultConfig(),
		src: fakeSource{},
		out: &out,
		now: func() time.Time { return hourStart.Add(59 * time.Minute) },
	}, &out
}

// run executes the CLI with args and decodes JSON output when v is non-nil.
func run(t *testing.T, rt *runtime, out *bytes.Buffer, v any, args ...string) error {
	t.Helper()
	out.Reset()
	err := newCLIApp(rt).Run(append([]string{"statustracker"}, args...))
	if err == nil && v != nil {
		if jerr := json.Unmarshal(out.Bytes(), v); jerr != nil {
			t.Fatalf("failed to parse output: %v\nOutput: %s", jerr, out.String())
		}
	}
	return err
}

func TestCLINames(t *testing.T) {
	rt, out := testRuntime()

	var output struct {
		Count int `json:"count"`
		Names []struct {
			Index int    `json:"index"`
			UUID  string `json:"uuid"`
		} `json:"names"`
	}
	if err := run(t, rt, out, &output, "names"); err != nil {
		t.Fatalf("names command failed: %v", err)
	}
	if output.Count != 2 || output.Names[1].UUID != steveUUID {
		t.Errorf("unexpected names output: %+v", output)
	}
}

func TestCLIUUID(t *testing.T) {
	rt, out := testRuntime()

	var output map[string]any
	if err := run(t, rt, out, &output, "uuid", "steve"); err != nil {
		t.Fatalf("uuid command failed: %v", err)
	}
	if output["uuid"] != steveUUID || output["found"] != true {
		t.Errorf("unexpected uuid output: %v", output)
	}
}

func TestCLICounts(t *testing.T) {
	rt, out := testRuntime()

	var output struct {
		HoursFetched int `json:"hours_fetched"`
		Series       struct {
			X []uint64                         `json:"x"`
			Y map[string]map[string][]*float64 `json:"y"`
		} `json:"series"`
	}
	err := run(t, rt, out, &output, "counts", "--from=59m", "--category=Staff", "--smooth=60")
	if err != nil {
		t.Fatalf("counts command failed: %v", err)
	}

	if output.HoursFetched != 1 {
		t.Errorf("hours_fetched = %d, want 1", output.HoursFetched)
	}
	if len(output.Series.X) != 60 {
		t.Fatalf("len(x) = %d, want 60", len(output.Series.X))
	}
	raw := output.Series.Y["0"]
	if got := *raw["all"][10]; got != 2 {
		t.Errorf("all[10] = %v, want 2", got)
	}
	if got := *raw["Staff"][10]; got != 1 {
		t.Errorf("Staff[10] = %v, want 1", got)
	}
	if _, ok := output.Series.Y["60"]; !ok {
		t.Error("expected smoothed window 60 in output")
	}
}

func TestCLIRolling(t *testing.T) {
	rt, out := testRuntime()
	rt.cfg.DefaultWindows = []uint64{60, 1440}

	var output struct {
		Windows []uint64 `json:"windows"`
	}
	if err := run(t, rt, out, &output, "rolling", "--from=59m"); err != nil {
		t.Fatalf("rolling command failed: %v", err)
	}
	if len(output.Windows) != 2 {
		t.Errorf("windows = %v, want configured defaults", output.Windows)
	}
}

func TestCLISessions(t *testing.T) {
	rt, out := testRuntime()

	var output struct {
		Intervals    []map[string]any `json:"intervals"`
		TotalMinutes uint64           `json:"total_minutes"`
		Diagnostic   map[string]any   `json:"diagnostic"`
	}
	if err := run(t, rt, out, &output, "sessions", "--from=59m", "steve"); err != nil {
		t.Fatalf("sessions command failed: %v", err)
	}
	if len(output.Intervals) != 1 || output.TotalMinutes != 30 {
		t.Errorf("unexpected sessions output: %+v", output)
	}

	output.Diagnostic = nil
	if err := run(t, rt, out, &output, "sessions", "--from=59m", "nobody"); err != nil {
		t.Fatalf("sessions command failed: %v", err)
	}
	if output.Diagnostic["code"] != "ENTITY_NOT_FOUND" {
		t.Errorf("diagnostic = %v, want ENTITY_NOT_FOUND", output.Diagnostic)
	}
}

func TestCLISummaryMarkdown(t *testing.T) {
	rt, out := testRuntime()

	if err := run(t, rt, out, nil, "summary", "--from=59m", "--markdown"); err != nil {
		t.Fatalf("summary command failed: %v", err)
	}
	md := out.String()
	if !strings.HasPrefix(md, "## Occupancy") {
		t.Errorf("expected markdown heading, got:\n%s", md)
	}
	if !strings.Contains(md, "| all |") {
		t.Errorf("expected a row for all, got:\n%s", md)
	}
}

func TestCLIChart(t *testing.T) {
	rt, out := testRuntime()
	dir := t.TempDir()

	t.Run("png counts", func(t *testing.T) {
		path := filepath.Join(dir, "counts.png")
		if err := run(t, rt, out, nil, "chart", "--from=59m", "-o", path); err != nil {
			t.Fatalf("chart command failed: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if !bytes.HasPrefix(data, []byte("\x89PNG")) {
			t.Errorf("expected PNG output, got %q", data[:min(8, len(data))])
		}
	})

	t.Run("svg from extension", func(t *testing.T) {
		path := filepath.Join(dir, "steve.svg")
		if err := run(t, rt, out, nil, "chart", "--from=59m", "--player=steve", "-o", path); err != nil {
			t.Fatalf("chart command failed: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if !bytes.Contains(data, []byte("<svg")) {
			t.Error("expected SVG output")
		}
	})

	t.Run("stdout", func(t *testing.T) {
		if err := run(t, rt, out, nil, "chart", "--from=59m", "--window=60", "--format=svg", "-o", "-"); err != nil {
			t.Fatalf("chart command failed: %v", err)
		}
		if !strings.Contains(out.String(), "<svg") {
			t.Error("expected SVG on stdout")
		}
	})
}

// TestCLIErrorHandling tests error handling in CLI commands.
func TestCLIErrorHandling(t *testing.T) {
	rt, out := testRuntime()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"reversed range", []string{"counts", "--from=2024-03-02", "--to=2024-03-01"}, "[INVALID_REQUEST]"},
		{"reserved category", []string{"counts", "--category=all"}, "[INVALID_REQUEST]"},
		{"unknown window", []string{"rolling", "--window=fortnight"}, "[INVALID_REQUEST]"},
		{"missing player name", []string{"sessions"}, "[INVALID_REQUEST]"},
		{"unknown chart player", []string{"chart", "--player=nobody", "-o", "-"}, "[ENTITY_NOT_FOUND]"},
		{"bad chart format", []string{"chart", "--format=gif", "-o", "-"}, "[INVALID_REQUEST]"},
		{"bad server flag", []string{"--server=ftp://tracker.example.net", "names"}, "[INVALID_REQUEST]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// cli.Exit writes to stderr, so just verify the error is returned
			err := run(t, rt, out, nil, tt.args...)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.HasPrefix(err.Error(), tt.want) {
				t.Errorf("error = %q, want prefix %q", err.Error(), tt.want)
			}
		})
	}
}

func TestChartFormat(t *testing.T) {
	tests := []struct {
		explicit, output, want string
	}{
		{"", "out.svg", "svg"},
		{"", "OUT.SVG", "SVG"},
		{"", "out.png", ""},
		{"", "-", ""},
		{"png", "out.svg", "png"},
	}
	for _, tt := range tests {
		if got := chartFormat(tt.explicit, tt.output); got != tt.want {
			t.Errorf("chartFormat(%q, %q) = %q, want %q", tt.explicit, tt.output, got, tt.want)
		}
	}
}

// TestIsCLIMode tests the isCLIMode function.
func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{"no args", []string{"statustracker"}, false},
		{"counts command", []string{"statustracker", "counts"}, true},
		{"serve command", []string{"statustracker", "serve"}, true},
		{"server flag", []string{"statustracker", "--server=http://localhost:8000", "names"}, true},
		{"help flag", []string{"statustracker", "--help"}, true},
		{"short version flag", []string{"statustracker", "-v"}, true},
		{"unknown arg defaults to MCP", []string{"statustracker", "--unknown"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if result := isCLIMode(); result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

// TestIsHelpOrVersion tests the isHelpOrVersion function.
func TestIsHelpOrVersion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{"no args", []string{"statustracker"}, false},
		{"help flag", []string{"statustracker", "--help"}, true},
		{"version flag", []string{"statustracker", "--version"}, true},
		{"help subcommand", []string{"statustracker", "help"}, true},
		{"counts command is not help", []string{"statustracker", "counts"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if result := isHelpOrVersion(); result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}
