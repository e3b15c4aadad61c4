package contextstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// ErrLockTimeout reports lock contention that outlasted the bounded wait. The
// caller sees it as a transient failure; nothing was read or written.
var ErrLockTimeout = errors.New("context store lock timeout")

const (
	defaultLockTimeout = 10 * time.Second
	lockRetryDelay     = 50 * time.Millisecond
)

// record is the on-disk shape of the single context slot.
type record struct {
	Context   string `json:"context"`
	UpdatedAt string `json:"updated_at"`
}

// Store is durable single-slot persistence for conversation memory. Save is a
// full replace: no two values are ever readable as current. The file is the
// only resource shared across sessions, so every access takes an exclusive
// lock on a sibling lock file with a bounded wait.
type Store struct {
	path        string
	lockPath    string
	lockTimeout time.Duration
}

func New(path string) *Store {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return &Store{
		path:        path,
		lockPath:    base + ".lock",
		lockTimeout: defaultLockTimeout,
	}
}

// Save replaces any previously stored context with the given value.
func (s *Store) Save(ctx context.Context, contextText string) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	data, err := json.Marshal(record{
		Context:   contextText,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	// write to a temp file and rename so a crash mid-write cannot leave a
	// half-written value readable as current
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load returns the stored context, or the empty string when nothing is stored.
func (s *Store) Load(ctx context.Context) (string, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return "", err
	}
	defer unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", fmt.Errorf("corrupt context store at %s: %w", s.path, err)
	}
	return rec.Context, nil
}

// Clear removes the stored context.
func (s *Store) Clear(ctx context.Context) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.lockPath), 0o755); err != nil {
		return nil, err
	}
	fl := flock.New(s.lockPath)
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	locked, err := fl.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s held for more than %s", ErrLockTimeout, s.lockPath, s.lockTimeout)
		}
		return nil, err
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s held for more than %s", ErrLockTimeout, s.lockPath, s.lockTimeout)
	}
	return func() { _ = fl.Unlock() }, nil
}
