package rider

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultBaseURL is the canonical ProCyclingStats host.
const DefaultBaseURL = "https://www.procyclingstats.com"

// Value bounds for a rider.
const (
	MinValue = 50
	MaxValue = 500
)

// ErrNotFound is returned by Load when the record file does not exist.
var ErrNotFound = errors.New("record file not found")

// Record is a single startlist row as it flows between the pipeline stages.
type Record struct {
	Rider      string  `json:"Rider"`
	Team       string  `json:"Team"`
	URL        string  `json:"PCS_Rider_URL"`
	Role       string  `json:"Role"`
	Value      float64 `json:"Value"`
	Adj        float64 `json:"Adj"`
	FinalValue float64 `json:"FinalValue"`
}

// Key identifies a rider within a startlist.
func (r Record) Key() string {
	return r.Rider + "||" + r.Team
}

// Load reads a JSON array of records.
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read records %s: %w", path, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse records %s: %w", path, err)
	}
	return records, nil
}

// Save overwrites path with records, creating parent directories.
func Save(path string, records []Record) error {
	if records == nil {
		records = []Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write records %s: %w", path, err)
	}
	return nil
}

// RelativeURL turns a full profile URL into the site-relative form
// ("rider/tadej-pogacar") used by ranking tables.
func RelativeURL(full string) string {
	s := strings.TrimSpace(full)
	const host = "procyclingstats.com/"
	if idx := strings.LastIndex(s, host); idx >= 0 {
		s = s[idx+len(host):]
	}
	return strings.Trim(s, "/")
}

// AbsoluteURL qualifies a relative reference against base. Empty in, empty out.
func AbsoluteURL(base, rel string) string {
	rel = strings.Trim(strings.TrimSpace(rel), "/")
	if rel == "" {
		return ""
	}
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimRight(base, "/") + "/" + rel
}
