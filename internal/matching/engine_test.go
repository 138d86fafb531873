package matching

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/haulwire/loadscout/internal/common"
	"github.com/haulwire/loadscout/internal/models"
)

type fakeHuntStorage struct {
	plans []*models.HuntPlan
}

func (f *fakeHuntStorage) ListEnabled(_ context.Context, tenantID string) ([]*models.HuntPlan, error) {
	var out []*models.HuntPlan
	for _, p := range f.plans {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeHuntStorage) Upsert(_ context.Context, plan *models.HuntPlan) error {
	f.plans = append(f.plans, plan)
	return nil
}

type fakeMatchStorage struct {
	mu     sync.Mutex
	events []*models.MatchEvent
}

func (f *fakeMatchStorage) Exists(_ context.Context, loadID, huntID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.LoadID == loadID && e.HuntID == huntID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMatchStorage) Insert(_ context.Context, event *models.MatchEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

// fakeCooldownStorage scripts the gate decision
type fakeCooldownStorage struct {
	allow bool
	err   error
	calls int
}

func (f *fakeCooldownStorage) ShouldTrigger(_ context.Context, tenantID, huntID, fingerprint string, receivedAt time.Time, cooldownSeconds int, loadID string) (bool, error) {
	f.calls++
	return f.allow, f.err
}

func (f *fakeCooldownStorage) Get(_ context.Context, tenantID, huntID, fingerprint string) (*models.CooldownState, error) {
	return nil, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	count int
}

func (f *fakeNotifier) NotifyMatch(_ context.Context, _ *models.Tenant, _ *models.LoadRecord, _ *models.HuntPlan, _ *models.MatchEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	return nil
}

type fakeCreditChecker struct{}

func (f *fakeCreditChecker) TriggerCheck(_ context.Context, _, _, _ string) error { return nil }

type fakeFeatures struct{ enabled bool }

func (f *fakeFeatures) IsEnabled(_ context.Context, _, _ string) bool { return f.enabled }

func testEngine(hunts *fakeHuntStorage, matches *fakeMatchStorage, cooldowns *fakeCooldownStorage) (*Service, *fakeNotifier) {
	notifier := &fakeNotifier{}
	return &Service{
		hunts:     hunts,
		matches:   matches,
		cooldowns: cooldowns,
		notifier:  notifier,
		credit:    &fakeCreditChecker{},
		features:  &fakeFeatures{},
		config: &common.MatchingConfig{
			DefaultCooldownSeconds: 300,
			NotifyTimeout:          "2s",
		},
		logger: arbor.NewLogger(),
	}, notifier
}

func testTenant() *models.Tenant {
	return &models.Tenant{ID: "tenant-1", Name: "Test Carrier"}
}

func testLoad() *models.LoadRecord {
	return &models.LoadRecord{
		ID:            "load_0001",
		TenantID:      "tenant-1",
		Fingerprint:   "v1:abc",
		GeocodeStatus: models.GeocodeOK,
		// Dallas, TX
		OriginLat:  32.7767,
		OriginLng:  -96.7970,
		ReceivedAt: time.Now().UTC(),
		Parsed: models.ParsedLoad{
			VehicleType: "sprinter",
			Weight:      "1200",
		},
	}
}

func testHunt() *models.HuntPlan {
	return &models.HuntPlan{
		ID:       "hunt-1",
		TenantID: "tenant-1",
		Name:     "DFW sprinters",
		Enabled:  true,
		// Fort Worth, TX (~31 miles from Dallas)
		Lat:          32.7555,
		Lng:          -97.3308,
		RadiusMiles:  100,
		VehicleTypes: []string{"sprinter"},
	}
}

func TestMatchLoadFiresEvent(t *testing.T) {
	hunts := &fakeHuntStorage{plans: []*models.HuntPlan{testHunt()}}
	matches := &fakeMatchStorage{}
	engine, notifier := testEngine(hunts, matches, &fakeCooldownStorage{allow: true})

	fired := engine.MatchLoad(context.Background(), testTenant(), testLoad())
	assert.Equal(t, 1, fired)
	require.Len(t, matches.events, 1)
	assert.Equal(t, "load_0001", matches.events[0].LoadID)
	assert.Equal(t, "hunt-1", matches.events[0].HuntID)
	assert.InDelta(t, 31, matches.events[0].DistanceMiles, 2)

	assert.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return notifier.count == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMatchLoadRadiusBoundaryInclusive(t *testing.T) {
	hunt := testHunt()
	load := testLoad()
	// Pin the radius to the exact computed distance; the boundary is
	// inclusive so the load still matches.
	hunt.RadiusMiles = HaversineMiles(load.OriginLat, load.OriginLng, hunt.Lat, hunt.Lng)

	hunts := &fakeHuntStorage{plans: []*models.HuntPlan{hunt}}
	matches := &fakeMatchStorage{}
	engine, _ := testEngine(hunts, matches, &fakeCooldownStorage{allow: true})

	assert.Equal(t, 1, engine.MatchLoad(context.Background(), testTenant(), load))

	// One hair inside the boundary and it no longer matches.
	hunt.RadiusMiles = hunt.RadiusMiles - 0.001
	matches2 := &fakeMatchStorage{}
	engine2, _ := testEngine(hunts, matches2, &fakeCooldownStorage{allow: true})
	load2 := testLoad()
	load2.ID = "load_0002"
	assert.Equal(t, 0, engine2.MatchLoad(context.Background(), testTenant(), load2))
}

func TestMatchLoadFailClosedOnGateError(t *testing.T) {
	hunts := &fakeHuntStorage{plans: []*models.HuntPlan{testHunt()}}
	matches := &fakeMatchStorage{}
	gate := &fakeCooldownStorage{allow: true, err: fmt.Errorf("backing store unavailable")}
	engine, _ := testEngine(hunts, matches, gate)

	fired := engine.MatchLoad(context.Background(), testTenant(), testLoad())
	assert.Equal(t, 0, fired)
	assert.Empty(t, matches.events)
	assert.Equal(t, 1, gate.calls)
}

func TestMatchLoadFailClosedOnMissingFingerprint(t *testing.T) {
	hunts := &fakeHuntStorage{plans: []*models.HuntPlan{testHunt()}}
	matches := &fakeMatchStorage{}
	gate := &fakeCooldownStorage{allow: true}
	engine, _ := testEngine(hunts, matches, gate)

	load := testLoad()
	load.Fingerprint = ""
	assert.Equal(t, 0, engine.MatchLoad(context.Background(), testTenant(), load))
	assert.Empty(t, matches.events)
	assert.Zero(t, gate.calls, "gate must not be consulted without a fingerprint")
}

func TestMatchLoadSuppressedByCooldown(t *testing.T) {
	hunts := &fakeHuntStorage{plans: []*models.HuntPlan{testHunt()}}
	matches := &fakeMatchStorage{}
	engine, _ := testEngine(hunts, matches, &fakeCooldownStorage{allow: false})

	assert.Equal(t, 0, engine.MatchLoad(context.Background(), testTenant(), testLoad()))
	assert.Empty(t, matches.events)
}

func TestMatchLoadIdempotentPerPair(t *testing.T) {
	hunts := &fakeHuntStorage{plans: []*models.HuntPlan{testHunt()}}
	matches := &fakeMatchStorage{}
	gate := &fakeCooldownStorage{allow: true}
	engine, _ := testEngine(hunts, matches, gate)

	assert.Equal(t, 1, engine.MatchLoad(context.Background(), testTenant(), testLoad()))
	// Re-processing the same load never duplicates the (load, hunt) event.
	assert.Equal(t, 0, engine.MatchLoad(context.Background(), testTenant(), testLoad()))
	assert.Len(t, matches.events, 1)
}

func TestMatchLoadSkipsBelowFloor(t *testing.T) {
	hunt := testHunt()
	hunt.FloorLoadID = "load_0500"
	hunts := &fakeHuntStorage{plans: []*models.HuntPlan{hunt}}
	matches := &fakeMatchStorage{}
	engine, _ := testEngine(hunts, matches, &fakeCooldownStorage{allow: true})

	load := testLoad() // "load_0001" sorts below the floor
	assert.Equal(t, 0, engine.MatchLoad(context.Background(), testTenant(), load))

	load.ID = "load_0501"
	assert.Equal(t, 1, engine.MatchLoad(context.Background(), testTenant(), load))
}

func TestMatchLoadSkipsWithoutCoordinates(t *testing.T) {
	hunts := &fakeHuntStorage{plans: []*models.HuntPlan{testHunt()}}
	matches := &fakeMatchStorage{}
	engine, _ := testEngine(hunts, matches, &fakeCooldownStorage{allow: true})

	load := testLoad()
	load.GeocodeStatus = models.GeocodeMiss
	assert.Equal(t, 0, engine.MatchLoad(context.Background(), testTenant(), load))
}

func TestMatchLoadWeightCeiling(t *testing.T) {
	hunt := testHunt()
	hunt.MaxWeightLbs = 1000
	hunts := &fakeHuntStorage{plans: []*models.HuntPlan{hunt}}
	matches := &fakeMatchStorage{}
	engine, _ := testEngine(hunts, matches, &fakeCooldownStorage{allow: true})

	load := testLoad() // weighs 1200
	assert.Equal(t, 0, engine.MatchLoad(context.Background(), testTenant(), load))

	load.Parsed.Weight = "950"
	assert.Equal(t, 1, engine.MatchLoad(context.Background(), testTenant(), load))
}

func TestVehicleMatches(t *testing.T) {
	tests := []struct {
		load     string
		accepted []string
		want     bool
	}{
		{"sprinter", []string{"sprinter"}, true},
		{"Sprinter Van", []string{"sprinter"}, true},
		{"cargo van", []string{"sprinter van"}, true}, // shared van family
		{"small straight", []string{"straight truck"}, true},
		{"flatbed", []string{"sprinter", "cargo van"}, false},
		{"", []string{"sprinter"}, false},
		{"anything", nil, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VehicleMatches(tt.load, tt.accepted),
			"load %q vs %v", tt.load, tt.accepted)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// Dallas to Atlanta is roughly 720 miles great-circle.
	d := HaversineMiles(32.7767, -96.7970, 33.7490, -84.3880)
	assert.InDelta(t, 720, d, 15)

	assert.Zero(t, HaversineMiles(32.7767, -96.7970, 32.7767, -96.7970))
	assert.True(t, WithinRadius(200.0, 200.0), "radius boundary is inclusive")
	assert.False(t, WithinRadius(200.0001, 200.0))
}
