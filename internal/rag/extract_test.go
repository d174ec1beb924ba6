package rag

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestLooksLikeText(t *testing.T) {
	if !looksLikeText([]byte("plain leave policy text")) {
		t.Fatalf("expected plain text to pass")
	}
	if looksLikeText(nil) {
		t.Fatalf("expected empty content to fail")
	}
	if looksLikeText([]byte("abc\x00def")) {
		t.Fatalf("expected null byte to fail")
	}

	binary := make([]byte, 100)
	for i := range binary {
		binary[i] = 0x01
	}
	if looksLikeText(binary) {
		t.Fatalf("expected control-heavy content to fail")
	}
}

func TestCleanText(t *testing.T) {
	got := cleanText("  leave\tpolicy\n\n  details ")
	if got != "leave policy details" {
		t.Fatalf("unexpected cleaned text %q", got)
	}
}

func TestChunkTextOverlap(t *testing.T) {
	var builder strings.Builder
	for i := 0; i < 3000; i++ {
		builder.WriteByte(byte('a' + i%26))
	}
	text := builder.String()

	chunks := chunkText(text, 1200, 200)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 1200 {
		t.Fatalf("unexpected first chunk length %d", len(chunks[0]))
	}
	// Consecutive chunks share the trailing 200 characters.
	if chunks[0][1000:] != chunks[1][:200] {
		t.Fatalf("expected 200-character overlap between chunks")
	}
}

func TestChunkTextMultibyte(t *testing.T) {
	text := "a" + strings.Repeat("界", 3000)

	chunks := chunkText(text, 1200, 200)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if !utf8.ValidString(chunk) {
			t.Fatalf("chunk %d is not valid UTF-8: %q", i, chunk[len(chunk)-4:])
		}
	}
	if n := utf8.RuneCountInString(chunks[0]); n != 1200 {
		t.Fatalf("unexpected first chunk length %d", n)
	}
	// Window geometry counts characters, so the overlap holds for wide runes.
	first := []rune(chunks[0])
	second := []rune(chunks[1])
	if string(first[1000:]) != string(second[:200]) {
		t.Fatalf("expected 200-character overlap between chunks")
	}
}

func TestChunkTextEmpty(t *testing.T) {
	if chunks := chunkText("   \n\t ", 1200, 200); chunks != nil {
		t.Fatalf("expected nil chunks, got %v", chunks)
	}
}

func TestChunkTextShortInput(t *testing.T) {
	chunks := chunkText("short policy", 1200, 200)
	if len(chunks) != 1 || chunks[0] != "short policy" {
		t.Fatalf("unexpected chunks %v", chunks)
	}
}

func TestExtractTextPlain(t *testing.T) {
	got := extractText("policy.txt", []byte("  all employees get 18 days  "))
	if got != "all employees get 18 days" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestExtractTextRejectsBinary(t *testing.T) {
	if got := extractText("policy.bin", []byte{0x00, 0x01, 0x02}); got != "" {
		t.Fatalf("expected empty text for binary, got %q", got)
	}
}

func TestExtractDOCX(t *testing.T) {
	var buf bytes.Buffer
	archive := zip.NewWriter(&buf)
	entry, err := archive.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	document := `<?xml version="1.0"?>
		<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
			<w:body>
				<w:p><w:r><w:t>Leave policy</w:t></w:r></w:p>
				<w:p><w:r><w:t>18 days per year</w:t></w:r></w:p>
			</w:body>
		</w:document>`
	if _, err := entry.Write([]byte(document)); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := archive.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}

	got := extractDOCX(buf.Bytes())
	if !strings.Contains(got, "Leave policy") || !strings.Contains(got, "18 days per year") {
		t.Fatalf("unexpected docx text %q", got)
	}
}

func TestExtractDOCXNotAnArchive(t *testing.T) {
	if got := extractDOCX([]byte("not a zip")); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}
