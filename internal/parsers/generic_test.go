package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haulwire/loadscout/internal/mailparse"
)

func TestParseGeneric(t *testing.T) {
	env := &mailparse.Envelope{
		From:     "bob@smallbroker.test",
		FromName: "Bob Dispatcher",
		Text: "Can you cover a run from Oklahoma City, OK 73102 to Memphis, TN?\n" +
			"Weight: 2,400\n" +
			"Ready: 01/21/2026\n",
	}

	load := ParseGeneric(env)

	assert.Equal(t, "Oklahoma City", load.OriginCity)
	assert.Equal(t, "OK", load.OriginSt)
	assert.Equal(t, "73102", load.OriginZip)
	assert.Equal(t, "Memphis", load.DestCity)
	assert.Equal(t, "TN", load.DestSt)
	assert.Equal(t, "2,400", load.Weight)
	assert.Equal(t, "01/21/2026", load.PickupDate)

	assert.Equal(t, "Bob Dispatcher", load.BrokerName, "sender fills broker identity")
	assert.Equal(t, "bob@smallbroker.test", load.BrokerEmail)
}

func TestParseGenericOriginZipLine(t *testing.T) {
	env := &mailparse.Envelope{
		Text: "Dallas, TX to Atlanta, GA\nPickup zip: 75201\n",
	}
	load := ParseGeneric(env)
	assert.Equal(t, "75201", load.OriginZip)
}

func TestParseGenericFallsBackToHTML(t *testing.T) {
	env := &mailparse.Envelope{
		HTML: "<p>New run from Dallas, TX to Atlanta, GA</p><p>Weight: 900</p>",
	}
	load := ParseGeneric(env)
	assert.Equal(t, "Dallas", load.OriginCity)
	assert.Equal(t, "900", load.Weight)
}

func TestFlattenHTML(t *testing.T) {
	text := FlattenHTML("<html><body><p>Dallas, TX to Atlanta, GA</p></body></html>")
	assert.True(t, strings.Contains(text, "Dallas, TX to Atlanta, GA"), "got %q", text)
}
