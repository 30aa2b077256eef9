package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArticleHashIsStable(t *testing.T) {
	g := NewGenerator()

	h1 := g.ArticleHash("https://note.com/u/n/abc", "title", "body", 42)
	h2 := g.ArticleHash("https://note.com/u/n/abc", "title", "body", 42)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestArticleHashChangesWithContent(t *testing.T) {
	g := NewGenerator()

	base := g.ArticleHash("url", "title", "body", 1)
	assert.NotEqual(t, base, g.ArticleHash("url", "title", "body", 2))
	assert.NotEqual(t, base, g.ArticleHash("url", "title", "other", 1))
	assert.NotEqual(t, base, g.ArticleHash("other", "title", "body", 1))
}

func TestVerify(t *testing.T) {
	g := NewGenerator()

	h := g.ArticleHash("url", "title", "body", 7)
	assert.True(t, g.Verify(h, "url", "title", "body", 7))
	assert.False(t, g.Verify(h, "url", "title", "body", 8))
}
