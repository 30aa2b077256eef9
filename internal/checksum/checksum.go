package checksum

import (
	"crypto/sha256"
	"fmt"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// ArticleHash generates the SHA256 content hash persisted with each row.
// Formula: SHA256(url|title|text|views)
func (g *Generator) ArticleHash(url, title, text string, views int) string {
	content := fmt.Sprintf("%s|%s|%s|%d", url, title, text, views)
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", hash)
}

// Verify checks whether the stored hash still matches the content.
func (g *Generator) Verify(expectedHash, url, title, text string, views int) bool {
	return g.ArticleHash(url, title, text, views) == expectedHash
}
