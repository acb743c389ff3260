package history

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mmynk/weighbill/internal/models"
)

var (
	unsafeFileChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	fileSpaces      = regexp.MustCompile(`\s+`)
)

// ExportJSON serialises a receipt with two-space indentation.
func ExportJSON(r models.Receipt) ([]byte, error) {
	if r.Lines == nil {
		r.Lines = []models.LineItem{}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode bill: %w", err)
	}
	return data, nil
}

// FileName returns a download name for the receipt: its name, or "bill", with
// the given extension.
func FileName(r models.Receipt, ext string) string {
	base := CleanFileName(r.Name)
	if base == "" {
		base = "bill"
	}
	return base + ext
}

// CleanFileName replaces characters that are invalid in file names.
func CleanFileName(name string) string {
	cleaned := unsafeFileChars.ReplaceAllString(name, "_")
	cleaned = strings.TrimSpace(cleaned)
	return fileSpaces.ReplaceAllString(cleaned, "_")
}
