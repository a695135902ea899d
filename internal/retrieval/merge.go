package retrieval

// Merge concatenates keyword results before vector results and drops
// every document whose ID was already seen. When both searches return a
// document, the keyword copy is kept.
func Merge(keyword, vector []Document) []Document {
	seen := make(map[string]struct{}, len(keyword)+len(vector))
	merged := make([]Document, 0, len(keyword)+len(vector))

	for _, group := range [][]Document{keyword, vector} {
		for _, doc := range group {
			if _, ok := seen[doc.ID]; ok {
				continue
			}
			seen[doc.ID] = struct{}{}
			merged = append(merged, doc)
		}
	}

	return merged
}

// ApplyCutoff drops documents scoring below cutoff
func ApplyCutoff(docs []Document, cutoff float64) []Document {
	kept := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if doc.Score < cutoff {
			continue
		}
		kept = append(kept, doc)
	}
	return kept
}
