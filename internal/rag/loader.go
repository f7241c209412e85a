package rag

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// LoadTexts recursively reads plain-text and markdown files under folder.
// A missing folder yields no texts, and unreadable files are skipped; the
// knowledge base being absent or partial is never fatal.
func LoadTexts(folder string) []string {
	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return nil
	}

	var texts []string
	_ = filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md", ".markdown":
			data, err := os.ReadFile(path)
			if err != nil {
				log.Printf("Skipping unreadable file %s: %v", path, err)
				return nil
			}
			texts = append(texts, string(data))
		}
		return nil
	})
	return texts
}

// ChunkTexts splits each non-blank text into overlapping windows of size
// runes, with overlap runes shared between consecutive windows. Output
// order is document order, then position order, and the function is
// deterministic for identical inputs.
func ChunkTexts(texts []string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	step := size - overlap
	if step <= 0 {
		step = size
	}

	var chunks []string
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		runes := []rune(text)
		for start := 0; start < len(runes); start += step {
			end := start + size
			if end > len(runes) {
				end = len(runes)
			}
			chunks = append(chunks, string(runes[start:end]))
			if end == len(runes) {
				break
			}
		}
	}
	return chunks
}
