package ingestion

import (
	"fmt"
	"os"
	"strings"
)

const byteOrderMark = "\ufeff"

// CleanText normalizes uploaded CSV content: strips a leading byte order mark,
// converts line endings to LF and drops trailing blank lines.
func CleanText(content string) string {
	content = strings.TrimPrefix(content, byteOrderMark)
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.TrimRight(content, "\n \t") + "\n"
}

// IngestFromFile reads a CSV file from disk and parses it.
func IngestFromFile(path string) (*Upload, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &InputError{Message: fmt.Sprintf("failed to read %s", path), Cause: err}
	}
	return Parse(string(content), path)
}
