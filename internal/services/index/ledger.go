package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const ledgerFileName = "ingested_meta.json"

// ledger records the fingerprints of every chunk ever admitted to one
// session's index. It is the dedup source of truth: a fingerprint present
// here is skipped on subsequent ingestions regardless of index contents.
type ledger struct {
	Rows map[string]bool `json:"rows"`
}

func newLedger() *ledger {
	return &ledger{Rows: make(map[string]bool)}
}

// loadLedger reads the ledger file from dir, returning an empty ledger
// when the file does not exist yet.
func loadLedger(dir string) (*ledger, error) {
	path := filepath.Join(dir, ledgerFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return newLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ingestion ledger: %w", err)
	}

	var l ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse ingestion ledger %s: %w", path, err)
	}
	if l.Rows == nil {
		l.Rows = make(map[string]bool)
	}
	return &l, nil
}

// save writes the ledger to dir, replacing any previous file.
func (l *ledger) save(dir string) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ingestion ledger: %w", err)
	}
	path := filepath.Join(dir, ledgerFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write ingestion ledger: %w", err)
	}
	return nil
}

func (l *ledger) has(fingerprint string) bool {
	return l.Rows[fingerprint]
}

func (l *ledger) add(fingerprint string) {
	l.Rows[fingerprint] = true
}
