package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrict(t *testing.T) {
	obj, ok := parseStrict(`{"to": "Nagpur"}`)
	require.True(t, ok)
	assert.Equal(t, "Nagpur", obj["to"])

	_, ok = parseStrict(`["not", "an", "object"]`)
	assert.False(t, ok)
	_, ok = parseStrict(`null`)
	assert.False(t, ok)
}

func TestParseEmbedded(t *testing.T) {
	obj, ok := parseEmbedded("Sure! Here it is:\n```json\n{\"to\": \"Na{g}pur\", \"weight\": \"7300\"}\n```\nAnything else?")
	require.True(t, ok)
	assert.Equal(t, "Na{g}pur", obj["to"])

	_, ok = parseEmbedded("no braces here")
	assert.False(t, ok)
}

func TestParseRepaired(t *testing.T) {
	text := "```\n{truckNumber: 'MH09HH4512', to: 'Nagpur', from: \"new delhi\", weight: 7300, description: “steel”,}\n```"
	obj, ok := parseRepaired(text)
	require.True(t, ok)
	assert.Equal(t, "MH09HH4512", obj["truckNumber"])
	assert.Equal(t, "Nagpur", obj["to"])
	assert.Equal(t, "new delhi", obj["from"])
	assert.Equal(t, float64(7300), obj["weight"])
	assert.Equal(t, "steel", obj["description"])
}

func TestParseRepairedTruncated(t *testing.T) {
	obj, ok := parseRepaired(`Here you go: {"truckNumber": "MH09HH4512", "to": "Nagpur"`)
	require.True(t, ok)
	assert.Equal(t, "MH09HH4512", obj["truckNumber"])
	assert.Equal(t, "Nagpur", obj["to"])
}

func TestRecoverObjectOrder(t *testing.T) {
	_, ok := RecoverObject("")
	assert.False(t, ok)

	_, ok = RecoverObject("sorry, nothing to report")
	assert.False(t, ok)

	obj, ok := RecoverObject(`{"name": "Ramesh"}`)
	require.True(t, ok)
	assert.Equal(t, "Ramesh", obj["name"])
}

func TestFirstObject(t *testing.T) {
	block, ok := firstObject(`x {"a": {"b": "}"}} y {"c": 1}`)
	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": "}"}}`, block)

	_, ok = firstObject(`{"a": 1`)
	assert.False(t, ok)
}
