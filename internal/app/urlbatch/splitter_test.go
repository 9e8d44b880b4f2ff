package urlbatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitConcatenated(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"two glued", "https://a.com/xhttps://b.com/y", []string{"https://a.com/x", "https://b.com/y"}},
		{"three glued mixed schemes", "http://a.comhttps://b.comhttp://c.com", []string{"http://a.com", "https://b.com", "http://c.com"}},
		{"single", "https://a.com", []string{"https://a.com"}},
		{"none", "no links here", nil},
		{"bad segment dropped", "https://https://b.com", []string{"https://b.com"}},
		{"leading text ignored", "see:https://a.com", []string{"https://a.com"}},
		{"http word without scheme", "httpbin https://a.com", []string{"https://a.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitConcatenated(tt.line))
		})
	}
}

func TestMarkerPositions(t *testing.T) {
	assert.Equal(t, []int{0, 15}, markerPositions("https://a.com/xhttps://b.com/y"))
	assert.Nil(t, markerPositions("http-only"))
}
