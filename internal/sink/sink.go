package sink

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tablecrawl/tablecrawl/internal/model"
)

// Sink receives deduplicated records as the crawl produces them. Emission
// order across kinds is not guaranteed; implementations must tolerate
// interleaved writes from concurrent workers.
type Sink interface {
	WriteRestaurant(r *model.Restaurant) error
	WriteReview(r *model.Review) error
	WriteUser(u *model.User) error
	Close() error
}

// File names within the output directory, one stream per entity kind.
const (
	RestaurantsFile = "restaurants.jsonl"
	ReviewsFile     = "reviews.jsonl"
	UsersFile       = "users.jsonl"
)

// JSONL writes records as line-delimited JSON, one file per entity kind,
// appending to existing files so resumed runs extend prior output.
//
// Design decision: Streams are opened lazily on first write. A run with
// user scraping disabled then leaves no empty users file behind.
type JSONL struct {
	mu      sync.Mutex
	dir     string
	streams map[string]*stream
}

type stream struct {
	f *os.File
	w *bufio.Writer
}

// NewJSONL creates a JSONL sink writing into dir, creating it if needed.
func NewJSONL(dir string) (*JSONL, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &JSONL{
		dir:     dir,
		streams: make(map[string]*stream),
	}, nil
}

// WriteRestaurant appends one restaurant record.
func (s *JSONL) WriteRestaurant(r *model.Restaurant) error {
	return s.write(RestaurantsFile, r)
}

// WriteReview appends one review record.
func (s *JSONL) WriteReview(r *model.Review) error {
	return s.write(ReviewsFile, r)
}

// WriteUser appends one user record.
func (s *JSONL) WriteUser(u *model.User) error {
	return s.write(UsersFile, u)
}

func (s *JSONL) write(name string, record any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.streamLocked(name)
	if err != nil {
		return err
	}
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record for %s: %w", name, err)
	}
	if _, err := st.w.Write(line); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := st.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (s *JSONL) streamLocked(name string) (*stream, error) {
	if st, ok := s.streams[name]; ok {
		return st, nil
	}
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	st := &stream{f: f, w: bufio.NewWriter(f)}
	s.streams[name] = st
	return st, nil
}

// Close flushes and closes every open stream. The sink must not be used
// afterwards.
func (s *JSONL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for name, st := range s.streams {
		if err := st.w.Flush(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to flush %s: %w", name, err)
		}
		if err := st.f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close %s: %w", name, err)
		}
	}
	s.streams = make(map[string]*stream)
	return firstErr
}
