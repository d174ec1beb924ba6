package rag

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

var whitespaceRuns = regexp.MustCompile(`\s+`)

// extractText pulls plain text out of raw document bytes based on the source
// path's extension. Unrecognized binary content yields an empty string, never
// an error; the indexer reports it as a skip.
func extractText(sourcePath string, raw []byte) string {
	switch strings.ToLower(filepath.Ext(sourcePath)) {
	case ".pdf":
		return extractPDF(raw)
	case ".docx":
		return extractDOCX(raw)
	}
	if looksLikeText(raw) {
		return strings.TrimSpace(string(raw))
	}
	return ""
}

// looksLikeText rejects content containing null bytes or a high share of
// control bytes in the leading sample.
func looksLikeText(raw []byte) bool {
	if len(raw) == 0 {
		return false
	}
	if bytes.IndexByte(raw, 0x00) >= 0 {
		return false
	}
	sample := raw
	if len(sample) > 2048 {
		sample = sample[:2048]
	}
	nonPrintable := 0
	for _, b := range sample {
		if b < 9 || (b > 13 && b < 32) {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(len(sample)) < 0.2
}

func extractPDF(raw []byte) string {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return ""
	}
	content, err := reader.GetPlainText()
	if err != nil {
		return ""
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, content); err != nil {
		return ""
	}
	return strings.TrimSpace(buf.String())
}

// extractDOCX walks word/document.xml inside the OOXML archive, collecting
// text runs and inserting newlines at paragraph boundaries.
func extractDOCX(raw []byte) string {
	archive, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return ""
	}
	var document io.ReadCloser
	for _, file := range archive.File {
		if file.Name == "word/document.xml" {
			document, err = file.Open()
			if err != nil {
				return ""
			}
			break
		}
	}
	if document == nil {
		return ""
	}
	defer document.Close()

	decoder := xml.NewDecoder(document)
	var builder strings.Builder
	inText := false
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				builder.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				builder.Write(t)
			}
		}
	}
	return strings.TrimSpace(builder.String())
}

// cleanText collapses all whitespace runs to single spaces.
func cleanText(text string) string {
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(text, " "))
}

// chunkText splits cleaned text into overlapping character windows. The
// final chunk may be shorter than maxChars. Offsets count runes, not bytes;
// a window boundary must never split a multibyte character.
func chunkText(text string, maxChars, overlap int) []string {
	cleaned := cleanText(text)
	if cleaned == "" {
		return nil
	}
	if maxChars <= 0 {
		maxChars = 1200
	}
	if overlap < 0 || overlap >= maxChars {
		overlap = 0
	}

	runes := []rune(cleaned)
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= len(runes) {
			break
		}
		start = end - overlap
	}
	return chunks
}
