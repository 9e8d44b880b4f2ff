package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubmittedFilterIsPerUserAndCaseInsensitive(t *testing.T) {
	f := NewSubmittedFilter(1000, 0.001)
	f.Add(1, []string{"https://Example.com/a", "https://example.com/b"})

	assert.True(t, f.MightContain(1, "HTTPS://EXAMPLE.COM/A"))
	assert.True(t, f.MightContain(1, " https://example.com/b "))
	assert.False(t, f.MightContain(2, "https://example.com/a"))
	assert.Equal(t, 2, f.CountSubmitted(1, []string{"https://example.com/a", "https://example.com/b", "https://other.org"}))
}
