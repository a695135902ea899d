package retrieval

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Chunker splits text into overlapping windows of whitespace tokens,
// preferring to end a window on a sentence boundary
type Chunker struct {
	Size    int
	Overlap int
}

// DefaultChunker matches the corpus index settings
var DefaultChunker = Chunker{Size: 512, Overlap: 20}

// Chunk is a piece of a source document ready for embedding
type Chunk struct {
	ID      string
	Source  string
	Index   int
	Content string
}

// Split returns the chunk texts of text
func (c Chunker) Split(text string) []string {
	size := c.Size
	if size <= 0 {
		size = DefaultChunker.Size
	}
	overlap := c.Overlap
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	for start := 0; start < len(words); {
		end := min(start+size, len(words))
		if end < len(words) {
			end = sentenceEnd(words, start, end, overlap)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
		start = end - overlap
	}
	return chunks
}

// sentenceEnd moves end back to just after the last sentence-final word
// in the second half of the window, so windows still advance
func sentenceEnd(words []string, start, end, overlap int) int {
	floor := start + max((end-start)/2, overlap+1)
	for i := end; i > floor; i-- {
		w := words[i-1]
		if strings.HasSuffix(w, ".") || strings.HasSuffix(w, "!") || strings.HasSuffix(w, "?") {
			return i
		}
	}
	return end
}

var textExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".json":     true,
	".html":     true,
	".htm":      true,
}

// LoadDirectory reads every text file under dir recursively and splits
// it into chunks with stable IDs derived from path and position
func LoadDirectory(dir string, chunker Chunker) ([]Chunk, error) {
	var chunks []Chunk

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !textExtensions[strings.ToLower(filepath.Ext(path))] {
			log.Debug().Str("path", path).Msg("Skipping non-text file")
			return nil
		}

		data, err := os.ReadFile(path) // #nosec G304 -- walking the configured corpus directory
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		for i, text := range chunker.Split(string(data)) {
			chunks = append(chunks, Chunk{
				ID:      ChunkID(rel, i),
				Source:  rel,
				Index:   i,
				Content: text,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load documents from %s: %w", dir, err)
	}

	log.Info().
		Str("dir", dir).
		Int("chunks", len(chunks)).
		Msg("Loaded corpus documents")

	return chunks, nil
}

// ChunkID returns the deterministic ID of chunk index of source
func ChunkID(source string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s#%d", source, index))).String()
}
