package models

import "time"

// LoadSource identifies the email format a load was parsed from
type LoadSource string

const (
	SourceSylectus   LoadSource = "sylectus"
	SourceFullCircle LoadSource = "fullcircle"
	SourceDAT        LoadSource = "dat"
	SourceGeneric    LoadSource = "generic"
)

// StopType distinguishes pickup and delivery stops
type StopType string

const (
	StopPickup   StopType = "pickup"
	StopDelivery StopType = "delivery"
)

// Stop is one stop on a multi-stop load, in route order
type Stop struct {
	Sequence int      `json:"sequence"`
	Type     StopType `json:"type"`
	City     string   `json:"city,omitempty"`
	State    string   `json:"state,omitempty"`
	Zip      string   `json:"zip,omitempty"`
	Date     string   `json:"date,omitempty"` // raw as parsed, normalized later
	Time     string   `json:"time,omitempty"`
}

// ParsedLoad is the ephemeral, in-memory result of parsing one email.
// Every field may be absent; values are raw extracted text. Canonicalization
// and type conversion happen in the dedup engine, not here.
type ParsedLoad struct {
	Source LoadSource `json:"source"`

	// Broker identity
	BrokerCompany string `json:"broker_company,omitempty"`
	BrokerName    string `json:"broker_name,omitempty"`
	BrokerEmail   string `json:"broker_email,omitempty"`
	BrokerPhone   string `json:"broker_phone,omitempty"`
	BrokerMC      string `json:"broker_mc,omitempty"` // carrier identifier (MC/DOT number)
	OrderNumber   string `json:"order_number,omitempty"`

	// Route
	OriginCity string `json:"origin_city,omitempty"`
	OriginSt   string `json:"origin_state,omitempty"`
	OriginZip  string `json:"origin_zip,omitempty"`
	DestCity   string `json:"dest_city,omitempty"`
	DestSt     string `json:"dest_state,omitempty"`
	DestZip    string `json:"dest_zip,omitempty"`
	Stops      []Stop `json:"stops,omitempty"`

	// Schedule
	PickupDate   string     `json:"pickup_date,omitempty"`
	PickupTime   string     `json:"pickup_time,omitempty"`
	DeliveryDate string     `json:"delivery_date,omitempty"`
	DeliveryTime string     `json:"delivery_time,omitempty"`
	PostedAt     *time.Time `json:"posted_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`

	// Equipment and freight
	VehicleType string `json:"vehicle_type,omitempty"`
	Weight      string `json:"weight,omitempty"`
	Pieces      string `json:"pieces,omitempty"`
	Dimensions  string `json:"dimensions,omitempty"`
	Miles       string `json:"miles,omitempty"`
	Rate        string `json:"rate,omitempty"`

	Hazmat string `json:"hazmat,omitempty"` // raw truthy/falsy spelling
	Notes  string `json:"notes,omitempty"`
}

// HasOrigin reports whether both origin city and state were parsed
func (p *ParsedLoad) HasOrigin() bool {
	return p.OriginCity != "" && p.OriginSt != ""
}

// HasDestination reports whether both destination city and state were parsed
func (p *ParsedLoad) HasDestination() bool {
	return p.DestCity != "" && p.DestSt != ""
}

// HasBrokerIdentity reports whether at least one broker identity field was parsed
func (p *ParsedLoad) HasBrokerIdentity() bool {
	return p.BrokerCompany != "" || p.BrokerName != "" || p.BrokerEmail != "" || p.BrokerMC != ""
}

// GeocodeStatus records the outcome of origin geocoding for a load
type GeocodeStatus string

const (
	GeocodeOK      GeocodeStatus = "ok"
	GeocodeMiss    GeocodeStatus = "not_found"
	GeocodeSkipped GeocodeStatus = "skipped"
)

// DedupStatus classifies a load relative to prior records
type DedupStatus string

const (
	DedupNew        DedupStatus = "new"
	DedupDuplicate  DedupStatus = "duplicate"
	DedupUpdate     DedupStatus = "update"
	DedupIneligible DedupStatus = "ineligible"
)

// LoadRecord is the persisted structured load. Created once per unique message
// id; mutated only by the pipeline that created it.
type LoadRecord struct {
	ID        string `json:"id" badgerhold:"key"`
	MessageID string `json:"message_id" badgerhold:"index"`
	TenantID  string `json:"tenant_id" badgerhold:"index"`

	Parsed ParsedLoad `json:"parsed"`

	// Dedup
	Fingerprint        string      `json:"fingerprint,omitempty" badgerhold:"index"`
	FingerprintVersion int         `json:"fingerprint_version,omitempty"`
	LegacyHash         string      `json:"legacy_hash,omitempty" badgerhold:"index"`
	DedupStatus        DedupStatus `json:"dedup_status"`
	DedupSkipReason    string      `json:"dedup_skip_reason,omitempty"`
	OriginalLoadID     string      `json:"original_load_id,omitempty"` // set when duplicate/update of a prior record

	// Geocode
	GeocodeStatus GeocodeStatus `json:"geocode_status"`
	OriginLat     float64       `json:"origin_lat,omitempty"`
	OriginLng     float64       `json:"origin_lng,omitempty"`

	// Data quality
	HasIssues bool     `json:"has_issues"`
	Issues    []string `json:"issues,omitempty"`

	ReceivedAt time.Time `json:"received_at"`
	CreatedAt  time.Time `json:"created_at"`
}
