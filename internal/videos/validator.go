package videos

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	MinTitleLength = 3
	MaxTitleLength = 255
)

// AllowedExtensions lists the accepted upload file extensions.
var AllowedExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm"}

const forbiddenTitleChars = `<>:"/\|?*`

// Limits bounds the size of an accepted upload.
type Limits struct {
	MaxBytes int64
}

// Validate runs the extension, title and size checks in that order and
// returns the first failure as a *ValidationError.
func (l Limits) Validate(filename, title string, size int64) error {
	if err := ValidateExtension(filename); err != nil {
		return err
	}
	if err := ValidateTitle(title); err != nil {
		return err
	}
	return l.ValidateSize(size)
}

// ValidateExtension checks filename against AllowedExtensions, ignoring case.
func ValidateExtension(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return invalid(fmt.Sprintf("Invalid file type. Allowed: %s", strings.Join(AllowedExtensions, ", ")))
}

// ValidateTitle checks the trimmed length of title and rejects forbidden
// characters anywhere in it.
func ValidateTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	n := utf8.RuneCountInString(trimmed)
	switch {
	case n == 0:
		return invalid("Title cannot be empty")
	case n < MinTitleLength:
		return invalid(fmt.Sprintf("Title must be at least %d characters", MinTitleLength))
	case n > MaxTitleLength:
		return invalid(fmt.Sprintf("Title must be at most %d characters", MaxTitleLength))
	}

	if i := strings.IndexAny(title, forbiddenTitleChars); i >= 0 {
		return invalid(fmt.Sprintf("Title contains invalid character: %c", title[i]))
	}
	return nil
}

// ValidateSize accepts 1..MaxBytes bytes inclusive.
func (l Limits) ValidateSize(size int64) error {
	if size <= 0 {
		return invalid("File is empty")
	}
	if size > l.MaxBytes {
		return invalid(fmt.Sprintf("File too large. Maximum size is %s", FormatFileSize(l.MaxBytes)))
	}
	return nil
}
