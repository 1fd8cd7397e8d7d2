package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLocations(t *testing.T) {
	got := parseLocations("union_square:Union Square, marina:Marina")
	assert.Equal(t, []Location{
		{Key: "union_square", Name: "Union Square"},
		{Key: "marina", Name: "Marina"},
	}, got)
}

func TestParseLocationsSkipsMalformedEntries(t *testing.T) {
	got := parseLocations("no-colon, :missing key, key: ,ok:Fine,")
	assert.Equal(t, []Location{{Key: "ok", Name: "Fine"}}, got)
}

func TestParseLocationsEmpty(t *testing.T) {
	assert.Nil(t, parseLocations(""))
}
