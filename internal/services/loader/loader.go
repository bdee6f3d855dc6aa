// -----------------------------------------------------------------------
// Document loader - reads uploaded files into retrievable documents
// -----------------------------------------------------------------------

package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colloquy/internal/models"
)

// Loader turns files on disk into documents. Plain-text formats and
// docx yield one document per file; PDFs yield one document per page,
// with the page number recorded as the row identifier. Unsupported
// extensions are logged and skipped rather than failing the whole batch.
type Loader struct {
	logger arbor.ILogger
}

func New(logger arbor.ILogger) *Loader {
	return &Loader{logger: logger}
}

// Load reads every path into documents, in input order. Source metadata
// is the base file name, so the same file re-uploaded to the same
// session produces identical provenance.
func (l *Loader) Load(ctx context.Context, paths []string) ([]models.Document, error) {
	var docs []models.Document

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := filepath.Base(path)
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md":
			doc, err := l.loadText(path, name)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)

		case ".pdf":
			pageDocs, err := l.loadPDF(path, name)
			if err != nil {
				return nil, err
			}
			docs = append(docs, pageDocs...)

		case ".docx":
			doc, err := l.loadDocx(path, name)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)

		default:
			l.logger.Warn().
				Str("file", name).
				Msg("Unsupported file type, skipping")
		}
	}

	l.logger.Debug().
		Int("files", len(paths)).
		Int("documents", len(docs)).
		Msg("Documents loaded")
	return docs, nil
}

func (l *Loader) loadText(path, name string) (models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to read file %s: %w", name, err)
	}
	return models.Document{Source: name, Text: string(data)}, nil
}

func (l *Loader) loadDocx(path, name string) (models.Document, error) {
	text, err := extractDocxText(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to extract docx %s: %w", name, err)
	}
	return models.Document{Source: name, Text: text}, nil
}

func (l *Loader) loadPDF(path, name string) ([]models.Document, error) {
	pages, err := extractPDFPages(path, l.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to extract PDF %s: %w", name, err)
	}

	docs := make([]models.Document, 0, len(pages))
	for _, page := range pages {
		if strings.TrimSpace(page.text) == "" {
			continue
		}
		docs = append(docs, models.Document{
			Source: name,
			Row:    fmt.Sprintf("%d", page.number),
			Text:   page.text,
		})
	}
	return docs, nil
}
