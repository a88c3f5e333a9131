package preview

import (
	"fmt"
	"os"
)

// WriteTempFile writes doc to a new .html file in dir (os.TempDir() when
// empty) and returns its path. The caller owns the file.
func WriteTempFile(dir, doc string) (string, error) {
	f, err := os.CreateTemp(dir, "sketch2web-*.html")
	if err != nil {
		return "", fmt.Errorf("preview: create temp file: %w", err)
	}
	if _, err := f.WriteString(doc); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("preview: write %s: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("preview: close %s: %w", f.Name(), err)
	}
	return f.Name(), nil
}

// WriteFile writes doc to path, replacing any existing file.
func WriteFile(path, doc string) error {
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("preview: write %s: %w", path, err)
	}
	return nil
}
