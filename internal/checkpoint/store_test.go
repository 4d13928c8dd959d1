package checkpoint

import (
	"context"
	"path/filepath"
	"testing"
)

const testRoot = "https://site.example/list"

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database and directory", func(t *testing.T) {
		t.Parallel()
		dir := filepath.Join(t.TempDir(), "nested", "checkpoints")
		s, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer func() { _ = s.Close() }()

		if s.Path() != filepath.Join(dir, "tablecrawl.db") {
			t.Errorf("Path() = %q", s.Path())
		}
	})

	t.Run("refuses missing database without create", func(t *testing.T) {
		t.Parallel()
		opts := Options{CreateIfNotExists: false, EnableWAL: true}
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("Open() on missing database = nil error, want error")
		}
	})
}

func TestStore_ResumePoint(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("empty record for unknown root", func(t *testing.T) {
		t.Parallel()
		s := openTestStore(t)

		record, err := s.ResumePoint(ctx, testRoot)
		if err != nil {
			t.Fatalf("ResumePoint() error = %v", err)
		}
		if record.LastListingPage != 0 || len(record.ReviewPages) != 0 {
			t.Errorf("empty root record = %+v", record)
		}
		if record.ResumeListingPage() != 1 {
			t.Errorf("ResumeListingPage() = %d, want 1", record.ResumeListingPage())
		}
	})

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		s := openTestStore(t)

		if err := s.CommitListingPage(ctx, testRoot, 2, "https://site.example/list?page=3"); err != nil {
			t.Fatalf("CommitListingPage() error = %v", err)
		}
		if err := s.CommitReviewPage(ctx, testRoot, "rA", 2, "https://site.example/restaurant/rA/reviews?page=3"); err != nil {
			t.Fatalf("CommitReviewPage(rA) error = %v", err)
		}
		if err := s.CommitReviewPage(ctx, testRoot, "rB", 1, ""); err != nil {
			t.Fatalf("CommitReviewPage(rB) error = %v", err)
		}

		record, err := s.ResumePoint(ctx, testRoot)
		if err != nil {
			t.Fatalf("ResumePoint() error = %v", err)
		}
		if record.LastListingPage != 2 {
			t.Errorf("LastListingPage = %d, want 2", record.LastListingPage)
		}
		if record.ReviewPages["rA"] != 2 || record.ReviewPages["rB"] != 1 {
			t.Errorf("ReviewPages = %v, want map[rA:2 rB:1]", record.ReviewPages)
		}
		if record.NextListingURL != "https://site.example/list?page=3" {
			t.Errorf("NextListingURL = %q", record.NextListingURL)
		}
		if record.NextReviewURLs["rA"] != "https://site.example/restaurant/rA/reviews?page=3" {
			t.Errorf("NextReviewURLs[rA] = %q", record.NextReviewURLs["rA"])
		}
		// rB's reviews are exhausted, so no next URL is stored for it.
		if _, ok := record.NextReviewURLs["rB"]; ok {
			t.Errorf("NextReviewURLs[rB] present for exhausted restaurant")
		}
		if record.ResumeListingPage() != 3 {
			t.Errorf("ResumeListingPage() = %d, want 3", record.ResumeListingPage())
		}
		if record.ResumeReviewPage("rA") != 3 || record.ResumeReviewPage("rC") != 1 {
			t.Errorf("ResumeReviewPage = (%d, %d), want (3, 1)",
				record.ResumeReviewPage("rA"), record.ResumeReviewPage("rC"))
		}
	})

	t.Run("roots are independent", func(t *testing.T) {
		t.Parallel()
		s := openTestStore(t)

		if err := s.CommitListingPage(ctx, testRoot, 4, ""); err != nil {
			t.Fatal(err)
		}

		other, err := s.ResumePoint(ctx, "https://other.example/list")
		if err != nil {
			t.Fatalf("ResumePoint() error = %v", err)
		}
		if other.LastListingPage != 0 {
			t.Errorf("other root LastListingPage = %d, want 0", other.LastListingPage)
		}
	})
}

func TestStore_MonotonicCommits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.CommitListingPage(ctx, testRoot, 3, "https://site.example/list?page=4"); err != nil {
		t.Fatal(err)
	}
	// A replayed commit for an earlier page must not move the watermark back.
	if err := s.CommitListingPage(ctx, testRoot, 1, "https://site.example/list?page=2"); err != nil {
		t.Fatal(err)
	}
	if err := s.CommitReviewPage(ctx, testRoot, "rA", 2, "https://site.example/restaurant/rA/reviews?page=3"); err != nil {
		t.Fatal(err)
	}
	if err := s.CommitReviewPage(ctx, testRoot, "rA", 1, "https://site.example/restaurant/rA/reviews?page=2"); err != nil {
		t.Fatal(err)
	}

	record, err := s.ResumePoint(ctx, testRoot)
	if err != nil {
		t.Fatalf("ResumePoint() error = %v", err)
	}
	if record.LastListingPage != 3 {
		t.Errorf("LastListingPage = %d, want 3 after lower replay", record.LastListingPage)
	}
	if record.NextListingURL != "https://site.example/list?page=4" {
		t.Errorf("NextListingURL = %q, lower replay moved the next URL", record.NextListingURL)
	}
	if record.ReviewPages["rA"] != 2 {
		t.Errorf("ReviewPages[rA] = %d, want 2 after lower replay", record.ReviewPages["rA"])
	}
}

func TestStore_Reset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.CommitListingPage(ctx, testRoot, 2, "https://site.example/list?page=3"); err != nil {
		t.Fatal(err)
	}
	if err := s.CommitReviewPage(ctx, testRoot, "rA", 1, "https://site.example/restaurant/rA/reviews?page=2"); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(ctx, testRoot); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	record, err := s.ResumePoint(ctx, testRoot)
	if err != nil {
		t.Fatalf("ResumePoint() error = %v", err)
	}
	if record.LastListingPage != 0 || len(record.ReviewPages) != 0 {
		t.Errorf("record after Reset = %+v, want empty", record)
	}
}

func TestStore_Reopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir, DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.CommitListingPage(ctx, testRoot, 5, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer func() { _ = s.Close() }()

	record, err := s.ResumePoint(ctx, testRoot)
	if err != nil {
		t.Fatalf("ResumePoint() after reopen error = %v", err)
	}
	if record.LastListingPage != 5 {
		t.Errorf("LastListingPage after reopen = %d, want 5", record.LastListingPage)
	}
}
