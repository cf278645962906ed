package videos

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	`\`, "_",
	"..", "_",
	"<", "_",
	">", "_",
	":", "_",
	`"`, "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

// UniqueFilename builds a collision-resistant object name of the form
// YYYYMMDD_HHMMSS_<8 hex chars><ext> from the upload time and the original
// file's extension.
func UniqueFilename(now time.Time, original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%s%s", now.UTC().Format("20060102_150405"), id, ext)
}

// SanitizeFilename replaces path separators, parent references and shell
// metacharacters with underscores.
func SanitizeFilename(name string) string {
	return filenameReplacer.Replace(name)
}

// TitleFromFilename returns the base name of filename without its extension.
func TitleFromFilename(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FormatFileSize renders a byte count with one decimal, e.g. "15.5 MB".
func FormatFileSize(size int64) string {
	value := float64(size)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if value < 1024 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
		value /= 1024
	}
	return fmt.Sprintf("%.1f TB", value)
}

// SizeInMB rounds a byte count up to whole megabytes.
func SizeInMB(size int64) int {
	const mb = 1024 * 1024
	if size <= 0 {
		return 0
	}
	return int((size + mb - 1) / mb)
}
