package artifact

import (
	"fmt"
	"path"
	"strings"
	"time"

	"quickapply-backend/internal/shared/util"
)

const (
	// ResumePrefix starts every generated resume name.
	ResumePrefix = "resume-"

	defaultExtension = ".pdf"
	maxExtensionLen  = 10
	randomBytes      = 16
)

// NewResumeName builds resume-<unix millis>-<128 random bits><ext>. The caller-supplied
// filename only contributes its extension.
func NewResumeName(now time.Time, originalFilename string) (string, error) {
	suffix, err := util.RandomHex(randomBytes)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d-%s%s", ResumePrefix, now.UnixMilli(), suffix, Extension(originalFilename)), nil
}

// Extension returns a lower-case [a-z0-9] extension of at most ten characters
// including the dot, or .pdf when the filename has none.
func Extension(originalFilename string) string {
	name := strings.ReplaceAll(strings.TrimSpace(originalFilename), "\\", "/")
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")

	var b strings.Builder
	b.WriteByte('.')
	for _, r := range ext {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "." {
		return defaultExtension
	}
	if len(out) > maxExtensionLen {
		out = out[:maxExtensionLen]
	}
	return out
}

// IsResumeKey reports whether key names a resume produced by NewResumeName.
func IsResumeKey(key string) bool {
	return strings.HasPrefix(path.Base(key), ResumePrefix)
}

// CleanKey rejects keys that are absolute or climb out of the store root.
func CleanKey(key string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(strings.TrimSpace(key), "\\", "/"))
	if clean == "." || clean == "" || strings.HasPrefix(clean, "..") || strings.HasPrefix(clean, "/") {
		return "", ErrInvalidKey
	}
	return clean, nil
}
