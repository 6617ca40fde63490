package validation

import (
	"path/filepath"
	"strings"

	"orgtrakker/internal/template/schema"
)

// MaxFileBytes is the largest upload a file field accepts.
const MaxFileBytes = 5 << 20

var allowedFileExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".pdf":  {},
}

// CheckUpload accepts a JPG, PNG or PDF of at most MaxFileBytes for a file
// field. Messages name the field's display label.
func CheckUpload(meta *schema.FieldMeta, fileName string, sizeBytes int64) error {
	label := meta.DisplayLabel()
	if _, ok := allowedFileExts[strings.ToLower(filepath.Ext(fileName))]; !ok {
		return &Error{
			FieldID: meta.FieldID,
			Field:   label,
			Rule:    RuleFileType,
			Message: label + " must be a JPG, PNG, or PDF.",
		}
	}
	if sizeBytes > MaxFileBytes {
		return &Error{
			FieldID: meta.FieldID,
			Field:   label,
			Rule:    RuleFileSize,
			Message: label + " must be less than 5MB.",
		}
	}
	return nil
}
