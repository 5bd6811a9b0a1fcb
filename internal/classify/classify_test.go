package classify

import (
	"testing"

	"github.com/aniladanir/lr-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestIsGoodsCandidate(t *testing.T) {
	assert.True(t, IsGoodsCandidate("MH 09 HH 4512\nIndore to Nagpur\n7300 kg\naluminium scrap"))
	assert.True(t, IsGoodsCandidate("PLASTIK DANA 20 ton"))
	assert.True(t, IsGoodsCandidate("new truck\nto Bhopal\n30\nsteel"))
	assert.False(t, IsGoodsCandidate("hello, how are you"))
	assert.False(t, IsGoodsCandidate("cancel"))
	assert.False(t, IsGoodsCandidate(""))
}

func TestMatchKeywordPrefersPhrases(t *testing.T) {
	kw, ok := MatchKeyword("MS SCRAP 12 ton")
	assert.True(t, ok)
	assert.Equal(t, "ms scrap", kw)
}

func TestGoodsWordIndex(t *testing.T) {
	// place names that contain a vocabulary fragment
	for _, place := range []string{"Barmer", "Bareilly", "Pipariya", "Baran", "Koilwar"} {
		assert.True(t, IsGoodsCandidate(place), place)
		assert.Equal(t, -1, GoodsWordIndex(place), place)
	}
	assert.Equal(t, -1, GoodsWordIndex("Indore"))
	assert.Equal(t, 7, GoodsWordIndex("Nagpur aluminium scrap"))
	assert.Equal(t, 0, GoodsWordIndex("TMT Bar 20 ton"))
}

func TestIsStructured(t *testing.T) {
	full := domain.LRFields{TruckNumber: "MH09HH4512", To: "Nagpur", Weight: "7300", Description: "Scrap"}
	assert.True(t, IsStructured(full))
	assert.Empty(t, Missing(full))

	partial := full
	partial.Weight = ""
	partial.To = ""
	assert.False(t, IsStructured(partial))
	assert.Equal(t, []string{"destination", "weight"}, Missing(partial))

	assert.False(t, IsStructured(domain.LRFields{}))
}
