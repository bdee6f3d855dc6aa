package loader

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractDocxText pulls the visible text out of a docx file. A docx is a
// zip archive whose body lives in word/document.xml; text runs sit in
// w:t elements, paragraphs in w:p. Each paragraph becomes one line.
func extractDocxText(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open docx archive: %w", err)
	}
	defer archive.Close()

	for _, file := range archive.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open word/document.xml: %w", err)
		}
		defer rc.Close()
		return parseDocxBody(rc)
	}
	return "", fmt.Errorf("word/document.xml not found in archive")
}

// parseDocxBody walks the document XML token stream, collecting character
// data inside text runs. Tabs and explicit breaks become whitespace.
func parseDocxBody(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var text strings.Builder
	inRun := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse document body: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inRun = true
			case "tab":
				text.WriteByte('\t')
			case "br", "cr":
				text.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inRun = false
			case "p":
				text.WriteByte('\n')
			}
		case xml.CharData:
			if inRun {
				text.Write(t)
			}
		}
	}
	return text.String(), nil
}
