// Package vocab loads the verb and noun code tables that map free-text
// keywords from notes entries to the numeric service codes the remote
// maintenance system expects. Tables are loaded once at startup and are
// immutable afterwards.
package vocab

import (
	"embed"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	verbsFile = "verbs.csv"
	nounsFile = "nouns.csv"
)

//go:embed seed/verbs.csv seed/nouns.csv
var seedFS embed.FS

// Verb is one row of the verb table.
type Verb struct {
	Keyword      string
	Code         int
	RequiresNoun bool
}

// Noun is one row of the noun table.
type Noun struct {
	Keyword string
	Code    int
}

// Table is the immutable keyword → code mapping.
type Table struct {
	verbs map[string]Verb
	nouns map[string]int
}

// Load reads the verb and noun tables from dir (typically .wo/vocab).
func Load(dir string) (*Table, error) {
	verbs, err := loadVerbs(filepath.Join(dir, verbsFile))
	if err != nil {
		return nil, err
	}
	nouns, err := loadNouns(filepath.Join(dir, nounsFile))
	if err != nil {
		return nil, err
	}
	return &Table{verbs: verbs, nouns: nouns}, nil
}

// Seed writes the embedded starter tables into dir, skipping files that
// already exist so operator edits survive re-init.
func Seed(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create vocab dir: %w", err)
	}
	for _, name := range []string{verbsFile, nounsFile} {
		dest := filepath.Join(dir, name)
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		data, err := seedFS.ReadFile("seed/" + name)
		if err != nil {
			return fmt.Errorf("read embedded %s: %w", name, err)
		}
		if err := os.WriteFile(dest, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// Verb looks up a verb keyword. Matching is exact after trimming whitespace.
func (t *Table) Verb(keyword string) (Verb, bool) {
	v, ok := t.verbs[strings.TrimSpace(keyword)]
	return v, ok
}

// Noun looks up a noun keyword. Matching is exact after trimming whitespace.
func (t *Table) Noun(keyword string) (int, bool) {
	code, ok := t.nouns[strings.TrimSpace(keyword)]
	return code, ok
}

// Verbs returns all verb rows sorted by keyword, for display.
func (t *Table) Verbs() []Verb {
	out := make([]Verb, 0, len(t.verbs))
	for _, v := range t.verbs {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Keyword < out[j].Keyword })
	return out
}

// Nouns returns all noun rows sorted by keyword, for display.
func (t *Table) Nouns() []Noun {
	out := make([]Noun, 0, len(t.nouns))
	for kw, code := range t.nouns {
		out = append(out, Noun{Keyword: kw, Code: code})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Keyword < out[j].Keyword })
	return out
}

func loadVerbs(path string) (map[string]Verb, error) {
	rows, err := readTable(path, 3)
	if err != nil {
		return nil, err
	}
	verbs := make(map[string]Verb, len(rows))
	for i, row := range rows {
		code, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad code %q", path, i+2, row[1])
		}
		requiresNoun, err := strconv.ParseBool(strings.TrimSpace(row[2]))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad requires_noun %q", path, i+2, row[2])
		}
		kw := strings.TrimSpace(row[0])
		if kw == "" {
			return nil, fmt.Errorf("%s row %d: empty keyword", path, i+2)
		}
		verbs[kw] = Verb{Keyword: kw, Code: code, RequiresNoun: requiresNoun}
	}
	return verbs, nil
}

func loadNouns(path string) (map[string]int, error) {
	rows, err := readTable(path, 2)
	if err != nil {
		return nil, err
	}
	nouns := make(map[string]int, len(rows))
	for i, row := range rows {
		code, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad code %q", path, i+2, row[1])
		}
		kw := strings.TrimSpace(row[0])
		if kw == "" {
			return nil, fmt.Errorf("%s row %d: empty keyword", path, i+2)
		}
		nouns[kw] = code
	}
	return nouns, nil
}

// readTable reads a CSV file, skipping the header row and validating the
// column count.
func readTable(path string, fields int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = fields
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty table", path)
	}
	return records[1:], nil // skip header
}
