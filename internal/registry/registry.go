package registry

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hamed0406/netwatch/internal/domain"
)

// ConfigurationError reports a target source that could not be used.
// It is recoverable: the monitor keeps running with whatever was loaded.
type ConfigurationError struct {
	Source string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("target source %q: %v", e.Source, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

var ErrEmptySource = errors.New("no targets listed")

// Load reads one target per line from path. Blank lines and lines starting
// with '#' are skipped, duplicates keep their first position. A missing,
// unreadable or empty source yields an empty slice and a *ConfigurationError.
func Load(path string) ([]domain.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return []domain.Target{}, &ConfigurationError{Source: path, Err: err}
	}
	defer f.Close()

	targets, err := Parse(f)
	if err != nil {
		return []domain.Target{}, &ConfigurationError{Source: path, Err: err}
	}
	if len(targets) == 0 {
		return targets, &ConfigurationError{Source: path, Err: ErrEmptySource}
	}
	return targets, nil
}

// Parse scans a line-oriented target list.
func Parse(r io.Reader) ([]domain.Target, error) {
	out := make([]domain.Target, 0, 16)
	seen := make(map[domain.Target]struct{})

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		t := domain.Normalize(line)
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("scan targets: %w", err)
	}
	return out, nil
}

// Augment puts gateway at the front unless it is empty or already listed.
// Existing entries keep their order; the input slice is never modified.
func Augment(targets []domain.Target, gateway domain.Target) []domain.Target {
	gateway = domain.Normalize(string(gateway))
	if gateway == "" || Contains(targets, gateway) {
		out := make([]domain.Target, len(targets))
		copy(out, targets)
		return out
	}
	out := make([]domain.Target, 0, len(targets)+1)
	out = append(out, gateway)
	return append(out, targets...)
}

func Contains(targets []domain.Target, t domain.Target) bool {
	for _, x := range targets {
		if x == t {
			return true
		}
	}
	return false
}
