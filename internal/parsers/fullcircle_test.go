package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haulwire/loadscout/internal/mailparse"
	"github.com/haulwire/loadscout/internal/models"
)

const fullCircleBody = `Order Number: FC-1001
Pickup: Fort Worth, TX 76102
Pickup Date: 01/19/2026
Pickup Time: 14:00
Delivery: Atlanta, GA
Delivery Date: 01/20/2026
Delivery Time: 09:00
Vehicle Type: Cargo Van
Weight: 950
Pieces: 2
Dims: 48x40x40
Miles: 780
Rate: 2,850.00
Broker: Acme Logistics
Contact: Jane Broker jane@acmelogistics.test
MC Number: 123456
Hazmat: No
Notes: Liftgate required
`

func TestParseFullCircle(t *testing.T) {
	load := ParseFullCircle(&mailparse.Envelope{Text: fullCircleBody})

	assert.Equal(t, models.SourceFullCircle, load.Source)
	assert.Equal(t, "FC-1001", load.OrderNumber)

	assert.Equal(t, "Fort Worth", load.OriginCity)
	assert.Equal(t, "TX", load.OriginSt)
	assert.Equal(t, "76102", load.OriginZip)
	assert.Equal(t, "Atlanta", load.DestCity)
	assert.Equal(t, "GA", load.DestSt)

	assert.Equal(t, "01/19/2026", load.PickupDate)
	assert.Equal(t, "14:00", load.PickupTime)
	assert.Equal(t, "01/20/2026", load.DeliveryDate)
	assert.Equal(t, "09:00", load.DeliveryTime)

	assert.Equal(t, "cargo van", load.VehicleType)
	assert.Equal(t, "950", load.Weight)
	assert.Equal(t, "2", load.Pieces)
	assert.Equal(t, "48x40x40", load.Dimensions)
	assert.Equal(t, "780", load.Miles)
	assert.Equal(t, "2,850.00", load.Rate)
	assert.Equal(t, "No", load.Hazmat)
	assert.Equal(t, "Liftgate required", load.Notes)

	assert.Equal(t, "Acme Logistics", load.BrokerCompany)
	assert.Equal(t, "Jane Broker", load.BrokerName)
	assert.Equal(t, "jane@acmelogistics.test", load.BrokerEmail)
	assert.Equal(t, "123456", load.BrokerMC)
}

func TestParseFullCircleIgnoresUnknownLabels(t *testing.T) {
	body := "Carrier Portal: https://example.test\nPickup: Dallas, TX\nDelivery: Tulsa, OK\n"
	load := ParseFullCircle(&mailparse.Envelope{Text: body})

	assert.Equal(t, "Dallas", load.OriginCity)
	assert.Equal(t, "Tulsa", load.DestCity)
	assert.Empty(t, load.Notes)
}

func TestParseFullCircleEmptyBody(t *testing.T) {
	load := ParseFullCircle(&mailparse.Envelope{})
	require.NotNil(t, load)
	assert.Empty(t, load.OriginCity)
}
