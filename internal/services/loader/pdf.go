package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
)

type pdfPage struct {
	number int
	text   string
}

// extractPDFPages extracts per-page text from a PDF using pdfcpu.
// pdfcpu has no direct text extraction; content streams are extracted to
// a scratch directory and read back in page order. A page whose content
// cannot be extracted comes back empty rather than failing the file.
func extractPDFPages(path string, logger arbor.ILogger) ([]pdfPage, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	pageCount := pdfCtx.PageCount

	outDir, err := os.MkdirTemp("", "colloquy-pdf-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		logger.Warn().
			Err(err).
			Str("file", filepath.Base(path)).
			Msg("PDF content extraction failed, returning empty pages")
		pages := make([]pdfPage, 0, pageCount)
		for n := 1; n <= pageCount; n++ {
			pages = append(pages, pdfPage{number: n})
		}
		return pages, nil
	}

	pageTexts := make(map[int]string)
	entries, _ := os.ReadDir(outDir)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, entry.Name()))
		if err != nil {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(entry.Name(), "Content_page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		} else if _, err := fmt.Sscanf(entry.Name(), "page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		}
	}

	pages := make([]pdfPage, 0, pageCount)
	for n := 1; n <= pageCount; n++ {
		pages = append(pages, pdfPage{number: n, text: pageTexts[n]})
	}
	return pages, nil
}
