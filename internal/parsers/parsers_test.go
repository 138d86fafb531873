package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haulwire/loadscout/internal/mailparse"
	"github.com/haulwire/loadscout/internal/models"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		env  mailparse.Envelope
		want models.LoadSource
	}{
		{
			name: "sylectus sender domain",
			env:  mailparse.Envelope{From: "alerts@sylectus.com"},
			want: models.SourceSylectus,
		},
		{
			name: "load opportunity subject",
			env:  mailparse.Envelope{From: "posting@broker.test", Subject: "New Load Opportunity"},
			want: models.SourceSylectus,
		},
		{
			name: "full circle sender domain",
			env:  mailparse.Envelope{From: "noreply@fullcircletms.com"},
			want: models.SourceFullCircle,
		},
		{
			name: "full circle body markers",
			env:  mailparse.Envelope{From: "ops@broker.test", Text: "Order Number: 1\nPickup: Dallas, TX\n"},
			want: models.SourceFullCircle,
		},
		{
			name: "dat sender domain",
			env:  mailparse.Envelope{From: "alerts@dat.com"},
			want: models.SourceDAT,
		},
		{
			name: "dat trip marker",
			env:  mailparse.Envelope{From: "x@y.test", Text: "*Trip: Dallas, TX to Atlanta, GA\n"},
			want: models.SourceDAT,
		},
		{
			name: "unknown falls through to generic",
			env:  mailparse.Envelope{From: "bob@smallbroker.test", Subject: "need a truck"},
			want: models.SourceGeneric,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(&tt.env))
		})
	}
}

// The subject parser runs first and wins on any field it filled; the body
// parser only fills the gaps.
func TestParseSubjectWinsOverBody(t *testing.T) {
	env := &mailparse.Envelope{
		From:    "noreply@fullcircletms.com",
		Subject: "Cargo Van: Dallas, TX to Atlanta, GA",
		Text: "Order Number: FC-2002\n" +
			"Pickup: Fort Worth, TX 76102\n" +
			"Delivery: Macon, GA\n" +
			"Pickup Date: 01/19/2026\n",
	}

	load := Parse(env, nil)

	assert.Equal(t, models.SourceFullCircle, load.Source)
	assert.Equal(t, "Dallas", load.OriginCity, "subject beats body on origin")
	assert.Equal(t, "Atlanta", load.DestCity)
	assert.Equal(t, "cargo van", load.VehicleType)
	assert.Equal(t, "FC-2002", load.OrderNumber, "body fills what the subject left absent")
	assert.Equal(t, "76102", load.OriginZip)
	assert.Equal(t, "01/19/2026", load.PickupDate)
}

func TestParseStopsFillScalarRoute(t *testing.T) {
	env := &mailparse.Envelope{
		From:    "alerts@sylectus.com",
		Subject: "Multi-stop run",
		HTML: `<table>
<tr><td>1</td><td>Pick-up</td><td>Dallas, TX 75201</td><td>01/19/2026 14:00</td></tr>
<tr><td>2</td><td>Pick-up</td><td>Shreveport, LA</td><td>01/19/2026 19:00</td></tr>
<tr><td>3</td><td>Delivery</td><td>Atlanta, GA 30303</td><td>01/20/2026 09:00</td></tr>
</table>`,
	}

	load := Parse(env, nil)

	require.Len(t, load.Stops, 3)
	assert.Equal(t, "Dallas", load.OriginCity, "first pickup becomes the origin")
	assert.Equal(t, "75201", load.OriginZip)
	assert.Equal(t, "01/19/2026", load.PickupDate)
	assert.Equal(t, "Atlanta", load.DestCity, "first delivery becomes the destination")
	assert.Equal(t, "09:00", load.DeliveryTime)
}

func TestMergeFillsOnlyAbsentFields(t *testing.T) {
	dst := &models.ParsedLoad{OriginCity: "Dallas", OriginSt: "TX"}
	src := &models.ParsedLoad{
		OriginCity: "Fort Worth",
		OriginSt:   "TX",
		DestCity:   "Atlanta",
		DestSt:     "GA",
		Weight:     "1200",
	}

	Merge(dst, src)

	assert.Equal(t, "Dallas", dst.OriginCity, "existing value survives")
	assert.Equal(t, "Atlanta", dst.DestCity)
	assert.Equal(t, "1200", dst.Weight)
}

func TestSetField(t *testing.T) {
	load := &models.ParsedLoad{VehicleType: "sprinter"}

	assert.True(t, SetField(load, "broker_mc", "123456"))
	assert.Equal(t, "123456", load.BrokerMC)

	assert.False(t, SetField(load, "vehicle_type", "van"), "never overwrites")
	assert.Equal(t, "sprinter", load.VehicleType)

	assert.False(t, SetField(load, "broker_mc", "  "), "blank value ignored")
	assert.False(t, SetField(load, "no_such_field", "x"))
}

func TestApplyHints(t *testing.T) {
	env := &mailparse.Envelope{
		Subject: "Ref 9981 Dallas to Atlanta",
		Text:    "Our MC# 445566 applies.\nCall dispatch.\n",
	}
	load := &models.ParsedLoad{BrokerMC: ""}

	packs := []*models.HintPack{{
		ID:       "pack-1",
		TenantID: "tenant-1",
		Hints: []models.Hint{
			{Field: "broker_mc", Pattern: `MC#\s*(\d+)`},
			{Field: "order_number", Pattern: `Ref\s+(\d+)`, Scope: "subject"},
			{Field: "weight", Pattern: `([invalid`},
		},
	}}

	ApplyHints(load, env, packs)

	assert.Equal(t, "445566", load.BrokerMC)
	assert.Equal(t, "9981", load.OrderNumber, "subject-scoped hint reads the subject")
	assert.Empty(t, load.Weight, "invalid pattern is skipped")
}

func TestApplyHintsNeverOverwrites(t *testing.T) {
	env := &mailparse.Envelope{Text: "MC# 999999\n"}
	load := &models.ParsedLoad{BrokerMC: "123456"}

	ApplyHints(load, env, []*models.HintPack{{
		Hints: []models.Hint{{Field: "broker_mc", Pattern: `MC#\s*(\d+)`}},
	}})

	assert.Equal(t, "123456", load.BrokerMC)
}
