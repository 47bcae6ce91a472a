package notes

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcus/wo/internal/models"
)

const notesDirName = ".wo/notes"

// Dir returns the notes directory for the project, honoring the config
// override when set.
func Dir(baseDir string, cfg *models.Config) string {
	if cfg != nil && cfg.NotesDir != "" {
		if filepath.IsAbs(cfg.NotesDir) {
			return cfg.NotesDir
		}
		return filepath.Join(baseDir, cfg.NotesDir)
	}
	return filepath.Join(baseDir, notesDirName)
}

// FilePath returns the notes file path for a work order.
func FilePath(dir, workOrderID string) string {
	return filepath.Join(dir, workOrderID+".md")
}

// Ensure creates the notes file with a header template if it does not exist
// and returns its path.
func Ensure(dir, workOrderID string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create notes dir: %w", err)
	}
	path := FilePath(dir, workOrderID)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	header := fmt.Sprintf("# Work Order %s\n\nControl: \n\n", workOrderID)
	if err := os.WriteFile(path, []byte(header), 0644); err != nil {
		return "", fmt.Errorf("create notes file: %w", err)
	}
	return path, nil
}

// ReadFile reads the full notes text for a work order. A missing file is
// reported as an error so callers can suggest `wo note`.
func ReadFile(dir, workOrderID string) (string, error) {
	data, err := os.ReadFile(FilePath(dir, workOrderID))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no notes file for %s: run 'wo note %s' first", workOrderID, workOrderID)
		}
		return "", err
	}
	return string(data), nil
}

// AppendAnchor appends a Start/Resume marker line with the given timestamp.
func AppendAnchor(path, kind, timestamp string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%s (%s)\n", kind, timestamp)
	return err
}

// MarkSynced rewrites the notes file appending the synced marker to entry
// lines whose timestamp and note match one of the given services. Called
// after a batch is fully pushed so the next stacking pass skips those lines.
// Entries that never made it into the batch — added after stacking, or
// dropped during encoding — are left untouched so they are still picked up
// next time.
func MarkSynced(path string, services []models.EncodedService) (int, error) {
	pushed := make(map[string]bool, len(services))
	for _, s := range services {
		pushed[s.Timestamp+"\x00"+s.Note] = true
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	lines := strings.Split(string(data), "\n")
	marked := 0
	for i, line := range lines {
		m := entryPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if strings.Contains(line, SyncedMarker) {
			continue
		}
		if !pushed[m[3]+"\x00"+strings.TrimSpace(m[4])] {
			continue
		}
		lines[i] = line + " " + SyncedMarker
		marked++
	}
	if marked == 0 {
		return 0, nil
	}

	// Atomic rewrite: temp file in same dir, then rename.
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "notes-*.md.tmp")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(strings.Join(lines, "\n")); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return 0, err
	}
	return marked, nil
}
