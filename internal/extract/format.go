package extract

import (
	"path/filepath"
	"strings"

	"github.com/hyperjump/yomu/internal/models"
)

// DetectFormat maps a file name to a format using its lowercased trailing extension.
// Unknown or missing extensions yield models.FormatUnsupported.
func DetectFormat(name string) models.Format {
	switch extension(name) {
	case ".pdf":
		return models.FormatPDF
	case ".docx":
		return models.FormatStructured
	case ".txt":
		return models.FormatPlainText
	default:
		return models.FormatUnsupported
	}
}

// SupportedExtensions lists the extensions DetectFormat accepts, with the leading dot.
func SupportedExtensions() []string {
	return []string{".pdf", ".docx", ".txt"}
}

func extension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}
