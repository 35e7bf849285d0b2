// Package extract decodes uploaded documents into plain text for the
// pipeline. It is the narrow file-decoding collaborator: the pipeline only
// ever sees the resulting {content, metadata} record.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"studygen/internal/models"
)

// Service stores uploads and decodes them to text.
type Service struct {
	uploadDir string
}

func NewService(uploadDir string) *Service {
	return &Service{uploadDir: uploadDir}
}

// Decode persists the upload under a fresh name and returns its decoded
// text content. Supported formats: PDF, plain text, and markdown.
func (s *Service) Decode(originalName string, src io.Reader) (*models.FileContent, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	switch ext {
	case ".pdf", ".txt", ".md", ".markdown":
	default:
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure upload dir: %w", err)
	}
	storedPath := filepath.Join(s.uploadDir, uuid.NewString()+ext)
	out, err := os.Create(storedPath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return nil, fmt.Errorf("write file: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("close file: %w", err)
	}

	var content string
	switch ext {
	case ".pdf":
		content, err = readPDF(storedPath)
	default:
		content, err = readText(storedPath)
	}
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("document %q contains no extractable text", originalName)
	}

	return &models.FileContent{
		Content: content,
		Metadata: models.FileMetadata{
			FileName: originalName,
			FileType: strings.TrimPrefix(ext, "."),
		},
	}, nil
}

func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

func readText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(raw), nil
}
