package news

import (
	"encoding/json"
	"fmt"
	"os"
)

// SaveJSON writes articles to path as an indented JSON array, replacing
// any previous file.
func SaveJSON(path string, articles []Article) error {
	if articles == nil {
		articles = []Article{}
	}

	data, err := json.MarshalIndent(articles, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode articles: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// LoadJSON reads articles previously written by SaveJSON
func LoadJSON(path string) ([]Article, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var articles []Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return articles, nil
}
