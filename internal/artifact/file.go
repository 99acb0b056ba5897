package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/abandonsearch/place-rater/internal/model"
)

// respName matches detailed (resp_001__google__model__attempt1.txt) and
// legacy (resp_240, resp_240.txt) artifact file names.
var respName = regexp.MustCompile(`^resp_(\d+)(?:__.*)?(?:\.txt)?$`)

// FileLog stores artifacts as text files in one directory.
//
// Each write produces a detailed file named by index, backend and attempt,
// plus two legacy copies keyed only by index that are created once and never
// overwritten, so tools reading the older layout keep working.
type FileLog struct {
	dir string
}

// NewFileLog returns a FileLog rooted at dir. The directory is created on
// first write.
func NewFileLog(dir string) *FileLog {
	return &FileLog{dir: dir}
}

// Dir returns the artifact directory.
func (l *FileLog) Dir() string { return l.dir }

// DetailedName returns the file name of the detailed artifact for a.
func DetailedName(a Artifact) string {
	return fmt.Sprintf("resp_%03d__%s__%s__attempt%d.txt", a.Index, a.Backend.Provider, a.Backend.SafeModel(), a.Attempt)
}

// LegacyNames returns the two index-only file names for index.
func LegacyNames(index int) []string {
	return []string{
		fmt.Sprintf("resp_%d.txt", index),
		fmt.Sprintf("resp_%d", index),
	}
}

// Write saves the detailed file and, when absent, the legacy copies. Only a
// failure of the detailed write is returned; legacy failures are logged.
func (l *FileLog) Write(_ context.Context, a Artifact) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return eris.Wrapf(err, "artifact: create dir %s", l.dir)
	}

	detailed := filepath.Join(l.dir, DetailedName(a))
	if err := os.WriteFile(detailed, []byte(a.Raw), 0o644); err != nil {
		return eris.Wrapf(err, "artifact: write %s", detailed)
	}
	l.stamp(detailed, a.WrittenAt)
	zap.L().Debug("artifact: saved raw response", zap.String("path", detailed))

	for _, name := range LegacyNames(a.Index) {
		path := filepath.Join(l.dir, name)
		created, err := writeIfAbsent(path, a.Raw)
		if err != nil {
			zap.L().Warn("artifact: failed to save legacy copy",
				zap.String("path", path),
				zap.Int("index", a.Index),
				zap.Error(err),
			)
			continue
		}
		if created {
			l.stamp(path, a.WrittenAt)
			zap.L().Debug("artifact: saved legacy copy", zap.String("path", path))
		}
	}
	return nil
}

// stamp sets the file mtime to at so recency follows the caller's clock.
func (l *FileLog) stamp(path string, at time.Time) {
	if at.IsZero() {
		return
	}
	if err := os.Chtimes(path, at, at); err != nil {
		zap.L().Debug("artifact: set mtime failed", zap.String("path", path), zap.Error(err))
	}
}

func writeIfAbsent(path, content string) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return false, err
	}
	return true, f.Close()
}

// Indices lists indices that have at least one artifact file. A missing
// directory yields no indices.
func (l *FileLog) Indices(_ context.Context) ([]int, error) {
	entries, err := l.entries()
	if err != nil {
		return nil, err
	}
	seen := make(map[int]struct{})
	for _, e := range entries {
		seen[e.index] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for idx := range seen {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out, nil
}

// Latest returns the newest artifact for index by file mtime. Ties are
// broken by attempt number, so a detailed file wins over a legacy copy
// written at the same instant.
func (l *FileLog) Latest(_ context.Context, index int) (*Artifact, error) {
	entries, err := l.entries()
	if err != nil {
		return nil, err
	}

	var best *fileEntry
	for i := range entries {
		e := &entries[i]
		if e.index != index {
			continue
		}
		if best == nil || e.newerThan(best) {
			best = e
		}
	}
	if best == nil {
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Join(l.dir, best.name))
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: read %s", best.name)
	}
	return &Artifact{
		Index:     index,
		Backend:   best.backend,
		Attempt:   best.attempt,
		Raw:       string(data),
		WrittenAt: best.modTime,
	}, nil
}

// Close is a no-op for the file log.
func (l *FileLog) Close() error { return nil }

type fileEntry struct {
	name    string
	index   int
	backend model.Backend
	attempt int
	modTime time.Time
}

func (e *fileEntry) newerThan(o *fileEntry) bool {
	if !e.modTime.Equal(o.modTime) {
		return e.modTime.After(o.modTime)
	}
	if e.attempt != o.attempt {
		return e.attempt > o.attempt
	}
	return e.name > o.name
}

func (l *FileLog) entries() ([]fileEntry, error) {
	dirEntries, err := os.ReadDir(l.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: list %s", l.dir)
	}

	out := make([]fileEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		e, ok := parseName(de.Name())
		if !ok {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		e.modTime = info.ModTime()
		out = append(out, e)
	}
	return out, nil
}

// parseName extracts index, backend and attempt from an artifact file name.
// Legacy names carry only the index.
func parseName(name string) (fileEntry, bool) {
	m := respName.FindStringSubmatch(name)
	if m == nil {
		return fileEntry{}, false
	}
	idx, err := strconv.Atoi(m[1])
	if err != nil {
		return fileEntry{}, false
	}
	e := fileEntry{name: name, index: idx}

	parts := strings.Split(strings.TrimSuffix(name, ".txt"), "__")
	if len(parts) >= 4 {
		last := parts[len(parts)-1]
		if n, err := strconv.Atoi(strings.TrimPrefix(last, "attempt")); err == nil && strings.HasPrefix(last, "attempt") {
			e.attempt = n
			e.backend = model.Backend{
				Provider: parts[1],
				Model:    strings.Join(parts[2:len(parts)-1], "__"),
			}
		}
	}
	return e, true
}
