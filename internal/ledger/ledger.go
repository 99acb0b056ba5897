// Package ledger holds the ordered list of finalized records and persists it
// atomically after every change.
package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/abandonsearch/place-rater/internal/model"
)

// Ledger is the in-memory output document. Entry i corresponds to input
// record i+1. Entries loaded from disk are kept byte-for-byte.
type Ledger struct {
	path    string
	entries []json.RawMessage
}

// New returns an empty ledger that persists to path.
func New(path string) *Ledger {
	return &Ledger{path: path}
}

// Load reads the ledger at path. A missing file gives an empty ledger. A
// file that is not a JSON list, or cannot be decoded, is discarded with a
// warning and also gives an empty ledger.
func Load(path string) *Ledger {
	l := New(path)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return l
	}
	if err != nil {
		zap.L().Warn("ledger: failed to read existing output, starting empty",
			zap.String("path", path), zap.Error(err))
		return l
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		zap.L().Warn("ledger: existing output is not a list, ignoring it",
			zap.String("path", path), zap.Error(err))
		return l
	}
	l.entries = entries
	zap.L().Info("ledger: loaded already-processed entries",
		zap.String("path", path), zap.Int("entries", len(entries)))
	return l
}

// Path returns the persisted location.
func (l *Ledger) Path() string { return l.path }

// Len returns the number of finalized records.
func (l *Ledger) Len() int { return len(l.entries) }

// Entries returns the raw entries. Callers must not modify them.
func (l *Ledger) Entries() []json.RawMessage { return l.entries }

// Add appends records in memory without persisting.
func (l *Ledger) Add(recs ...model.FinalizedRecord) error {
	for _, rec := range recs {
		raw, err := marshalEntry(rec)
		if err != nil {
			return err
		}
		l.entries = append(l.entries, raw)
	}
	return nil
}

// Append adds rec and persists the whole ledger. When persisting fails the
// entry stays in memory and the error is returned.
func (l *Ledger) Append(rec model.FinalizedRecord) error {
	if err := l.Add(rec); err != nil {
		return err
	}
	return l.Save()
}

// Save writes the full ledger to a temporary file next to the target and
// renames it into place, so the file on disk is always a complete document.
func (l *Ledger) Save() error {
	data, err := l.encode()
	if err != nil {
		return err
	}
	return writeAtomic(l.path, data)
}

func (l *Ledger) encode() ([]byte, error) {
	entries := l.entries
	if entries == nil {
		entries = []json.RawMessage{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return nil, eris.Wrap(err, "ledger: encode")
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func marshalEntry(rec model.FinalizedRecord) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return nil, eris.Wrap(err, "ledger: marshal record")
	}
	return json.RawMessage(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp_write_*")
	if err != nil {
		return eris.Wrapf(err, "ledger: create temp file in %s", dir)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return eris.Wrap(err, "ledger: write temp file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return eris.Wrap(err, "ledger: sync temp file")
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return eris.Wrap(err, "ledger: close temp file")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return eris.Wrap(err, "ledger: chmod temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return eris.Wrapf(err, "ledger: replace %s", path)
	}
	return nil
}
