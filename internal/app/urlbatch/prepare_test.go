package urlbatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrepareReady(t *testing.T) {
	prep := Prepare("https://a.com\nhttps://b.com", 10, false, DefaultPolicy())
	assert.True(t, prep.Eligibility.CanSubmit)
	assert.Equal(t, []string{"https://a.com", "https://b.com"}, prep.Batch())
	assert.Equal(t, CreditQuote{Required: 2, Available: 10, Sufficient: true}, prep.Quote)
}

func TestPrepareBlocksDuplicatesAndErrors(t *testing.T) {
	prep := Prepare("https://a.com\nhttps://A.com\nexample.com", 10, false, DefaultPolicy())
	assert.False(t, prep.Eligibility.CanSubmit)
	assert.Nil(t, prep.Batch())
	assert.Equal(t, 1, prep.Dedup.DuplicateCount)
	assert.True(t, prep.Eligibility.Has(BlockDuplicatesPresent))
	assert.True(t, prep.Eligibility.Has(BlockValidationErrors))
	assert.False(t, prep.Eligibility.Has(BlockInsufficientCredits))
}

func TestPrepareConcatenatedLineStillBlocksUntilCorrected(t *testing.T) {
	raw := "https://a.com/xhttps://b.com/y"
	prep := Prepare(raw, 10, false, DefaultPolicy())
	assert.Equal(t, 2, prep.Quote.Required)
	assert.True(t, prep.Eligibility.Has(BlockValidationErrors))

	fixed := Prepare(prep.Parse.CorrectedInput, 10, false, DefaultPolicy())
	assert.True(t, fixed.Eligibility.CanSubmit)
	assert.Equal(t, prep.Dedup.Unique, fixed.Batch())
}

func TestPrepareInsufficient(t *testing.T) {
	prep := Prepare("https://a.com\nhttps://b.com\nhttps://c.com", 2, false, DefaultPolicy())
	assert.False(t, prep.Quote.Sufficient)
	assert.Equal(t, []string{"insufficient credits: need 3, have 2"}, prep.Eligibility.BlockingReasons)
}

func TestPrepareBatchOnlyHoldsLowercaseSchemes(t *testing.T) {
	prep := Prepare("HTTPS://EXAMPLE.COM", 10, false, DefaultPolicy())
	assert.False(t, prep.Eligibility.CanSubmit)
	assert.Nil(t, prep.Batch())
	assert.True(t, prep.Eligibility.Has(BlockNoURLs))
	assert.True(t, prep.Eligibility.Has(BlockValidationErrors))

	prep = Prepare("https://example.com/redirect/https://\nhttp://b.com", 10, false, DefaultPolicy())
	assert.True(t, prep.Eligibility.CanSubmit)
	for _, u := range prep.Batch() {
		assert.True(t, hasProtocol(u), u)
	}
	assert.Equal(t, []string{"https://example.com/redirect/https://", "http://b.com"}, prep.Batch())
}
