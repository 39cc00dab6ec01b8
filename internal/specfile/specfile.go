// Package specfile expands file:path parts of a selection expression into
// the selections listed in that file, one per line. Blank lines and lines
// starting with # are ignored. Files are read once per Expander.
package specfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/local/pagesel/internal/selection"
)

const prefix = "file:"

// Error reports a file selector that could not be expanded.
type Error struct {
	Part string
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("file selector %q: %s", e.Part, e.Msg) }

// Expander resolves file selectors relative to a base directory. Paths that
// leave the base directory are rejected.
type Expander struct {
	base string

	mu    sync.Mutex
	files map[string][]string
}

func New(baseDir string) *Expander {
	if baseDir == "" {
		baseDir = "."
	}
	if abs, err := filepath.Abs(baseDir); err == nil {
		baseDir = abs
	}
	return &Expander{base: baseDir, files: map[string][]string{}}
}

// IsSelector reports whether part is a file selector.
func IsSelector(part string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(part)), prefix)
}

// HasSelectors reports whether any comma part of expr is a file selector.
func HasSelectors(expr string) bool {
	for _, p := range selection.SplitParts(expr) {
		if IsSelector(p) {
			return true
		}
	}
	return false
}

// Expand replaces every file selector in expr with the valid lines of its
// file. Lines that e cannot compile for a document of totalPages pages are
// skipped with a warning; a file without any valid line is an error.
func (x *Expander) Expand(e *selection.Engine, expr string, totalPages int) (string, error) {
	if !HasSelectors(expr) {
		return expr, nil
	}

	var out []string
	for _, part := range selection.SplitParts(expr) {
		if !IsSelector(part) {
			out = append(out, part)
			continue
		}
		lines, err := x.lines(part)
		if err != nil {
			return "", err
		}
		valid := 0
		for _, line := range lines {
			if err := e.Compile(line, totalPages); err != nil {
				log.Warn().Err(err).Str("selector", part).Str("line", line).Msg("invalid page spec in file, skipping")
				continue
			}
			out = append(out, line)
			valid++
		}
		if valid == 0 {
			return "", &Error{Part: part, Msg: "no valid page specifications found"}
		}
	}
	return strings.Join(out, ","), nil
}

func (x *Expander) resolve(part string) (string, error) {
	name := strings.TrimSpace(strings.TrimSpace(part)[len(prefix):])
	if name == "" {
		return "", &Error{Part: part, Msg: "missing file path"}
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(x.base, path)
	}
	path = filepath.Clean(path)
	rel, err := filepath.Rel(x.base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &Error{Part: part, Msg: "path outside the spec directory"}
	}
	return path, nil
}

func (x *Expander) lines(part string) ([]string, error) {
	path, err := x.resolve(part)
	if err != nil {
		return nil, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if cached, ok := x.files[path]; ok {
		return cached, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &Error{Part: part, Msg: "file not found"}
		}
		return nil, fmt.Errorf("read page specification file: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read page specification file: %w", err)
	}

	x.files[path] = lines
	log.Debug().Str("file", path).Int("lines", len(lines)).Msg("loaded page specifications")
	return lines, nil
}
