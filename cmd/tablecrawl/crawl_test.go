package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tablecrawl/tablecrawl/internal/config"
	"github.com/tablecrawl/tablecrawl/internal/model"
)

func parseCrawlConfig(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	cmd := NewCrawlCmd()
	cmd.SetArgs(args)
	// Parse flags without running the crawl.
	if err := cmd.ParseFlags(args); err != nil {
		return nil, err
	}
	positional := cmd.Flags().Args()
	return buildConfig(cmd, positional)
}

func TestBuildConfig(t *testing.T) {

	t.Run("defaults", func(t *testing.T) {
		cfg, err := parseCrawlConfig(t, "https://example.com/list")
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		if cfg.RootURL != "https://example.com/list" {
			t.Errorf("RootURL = %q", cfg.RootURL)
		}
		if cfg.MaxListingPages != config.DefaultMaxListingPages {
			t.Errorf("MaxListingPages = %d, want default %d", cfg.MaxListingPages, config.DefaultMaxListingPages)
		}
		if cfg.ScrapeUsers {
			t.Error("ScrapeUsers = true by default")
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("default config invalid: %v", err)
		}
	})

	t.Run("flags override defaults", func(t *testing.T) {
		cfg, err := parseCrawlConfig(t,
			"-l", "20", "-r", "50", "--scrape-users", "-w", "16",
			"--min-interval", "2s", "-o", "outdir",
			"https://example.com/list",
		)
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		if cfg.MaxListingPages != 20 || cfg.MaxReviewPages != 50 {
			t.Errorf("page limits = (%d, %d), want (20, 50)", cfg.MaxListingPages, cfg.MaxReviewPages)
		}
		if !cfg.ScrapeUsers || cfg.WorkerCount != 16 {
			t.Errorf("ScrapeUsers = %v, WorkerCount = %d", cfg.ScrapeUsers, cfg.WorkerCount)
		}
		if cfg.MinIntervalPerHost != 2*time.Second {
			t.Errorf("MinIntervalPerHost = %v, want 2s", cfg.MinIntervalPerHost)
		}
		if cfg.OutputDir != "outdir" {
			t.Errorf("OutputDir = %q", cfg.OutputDir)
		}
	})

	t.Run("conflicting report formats fail validation", func(t *testing.T) {
		cfg, err := parseCrawlConfig(t, "-j", "-m", "https://example.com/list")
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() with --json and --markdown = nil, want error")
		}
	})

	t.Run("missing explicit profile file errors", func(t *testing.T) {
		_, err := parseCrawlConfig(t, "-c", "/nonexistent/profile.yaml", "https://example.com/list")
		if err == nil {
			t.Error("buildConfig() with missing profile file = nil error")
		}
	})
}

// minimalSite serves one listing page with a single restaurant and one
// review page.
func minimalSite() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/list", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `<html><body><div class="restaurant-list">
<div class="restaurant-card" data-id="r1"><a class="restaurant-name" href="/restaurant/r1">Solo Place</a></div>
</div></body></html>`)
	})
	mux.HandleFunc("/restaurant/r1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `<html><body><div class="restaurant-detail" data-id="r1">
<h1 class="restaurant-name">Solo Place</h1>
<span class="rating" data-value="4.5"></span>
<span class="review-count">1 review</span>
<a class="reviews-link" href="/restaurant/r1/reviews">Reviews</a>
</div></body></html>`)
	})
	mux.HandleFunc("/restaurant/r1/reviews", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `<html><body><div class="review-list" data-restaurant-id="r1">
<div class="review" data-id="v1"><a class="username" href="/profile/dana">dana</a>
<span class="rating" data-value="5"></span><span class="review-title">Great</span>
<p class="review-comment">Lovely.</p></div>
</div></body></html>`)
	})
	return mux
}

func countJSONLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var v map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &v); err != nil {
			t.Errorf("line %d of %s is not JSON: %v", n+1, path, err)
		}
		n++
	}
	return n
}

func TestCrawlCmd_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(minimalSite())
	defer srv.Close()

	outDir := t.TempDir()
	cpDir := t.TempDir()
	reportPath := filepath.Join(t.TempDir(), "report", "summary.json")

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{
		"crawl",
		"--output", outDir,
		"--checkpoint-dir", cpDir,
		"--min-interval", "0",
		"--workers", "2",
		"--json",
		"--report", reportPath,
		srv.URL + "/list",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("crawl command error = %v\noutput:\n%s", err, out.String())
	}

	if n := countJSONLines(t, filepath.Join(outDir, "restaurants.jsonl")); n != 1 {
		t.Errorf("restaurant records = %d, want 1", n)
	}
	if n := countJSONLines(t, filepath.Join(outDir, "reviews.jsonl")); n != 1 {
		t.Errorf("review records = %d, want 1", n)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("summary report not written: %v", err)
	}
	var summary model.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatalf("summary report is not JSON: %v", err)
	}
	if summary.Restaurants != 1 || summary.Reviews != 1 {
		t.Errorf("summary counts = (%d, %d), want (1, 1)", summary.Restaurants, summary.Reviews)
	}
	if summary.Checkpoint == nil || summary.Checkpoint.LastListingPage != 1 {
		t.Errorf("summary checkpoint = %+v", summary.Checkpoint)
	}

	// Rerunning with the same checkpoint directory resumes past everything.
	rerun := NewRootCmd()
	rerun.SetOut(&out)
	rerun.SetErr(&out)
	rerun.SetArgs([]string{
		"crawl",
		"--output", outDir,
		"--checkpoint-dir", cpDir,
		"--min-interval", "0",
		"--json",
		"--report", reportPath,
		srv.URL + "/list",
	})
	if err := rerun.Execute(); err != nil {
		t.Fatalf("rerun error = %v", err)
	}

	data, err = os.ReadFile(reportPath)
	if err != nil {
		t.Fatal(err)
	}
	var second model.RunSummary
	if err := json.Unmarshal(data, &second); err != nil {
		t.Fatal(err)
	}
	if second.PagesFetched != 0 {
		t.Errorf("rerun PagesFetched = %d, want 0", second.PagesFetched)
	}
	// The record files are append-only and unchanged by the no-op rerun.
	if n := countJSONLines(t, filepath.Join(outDir, "restaurants.jsonl")); n != 1 {
		t.Errorf("restaurant records after rerun = %d, want 1", n)
	}
}

func TestCrawlCmd_RequiresURL(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"crawl"})

	if err := root.Execute(); err == nil {
		t.Error("crawl without a URL succeeded, want error")
	}
}

func TestOutputSummary(t *testing.T) {
	t.Run("markdown to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "summary.md")
		cfg := config.NewConfig()
		cfg.MarkdownReport = true
		cfg.ReportFile = path

		summary := model.NewRunSummary("https://example.com/list")
		if err := outputSummary(cfg, summary); err != nil {
			t.Fatalf("outputSummary() error = %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "# Crawl Report") {
			t.Errorf("markdown summary missing header:\n%s", data)
		}
	})
}
