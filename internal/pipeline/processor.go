package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/haulwire/loadscout/internal/common"
	"github.com/haulwire/loadscout/internal/dedup"
	"github.com/haulwire/loadscout/internal/interfaces"
	"github.com/haulwire/loadscout/internal/mailparse"
	"github.com/haulwire/loadscout/internal/matching"
	"github.com/haulwire/loadscout/internal/models"
	"github.com/haulwire/loadscout/internal/parsers"
)

// Processor runs the per-item pipeline: fetch raw payload, parse, geocode,
// fingerprint, persist, match. Everything downstream of a successful claim is
// exclusively owned by the claiming worker for that item.
type Processor struct {
	blobs   interfaces.BlobStorage
	queue   interfaces.QueueStorage
	loads   interfaces.LoadStorage
	tenants interfaces.TenantStorage
	hints   interfaces.HintStorage
	geocode interfaces.GeocodeService
	matcher *matching.Service
	config  *common.Config
	logger  arbor.ILogger
}

func NewProcessor(
	blobs interfaces.BlobStorage,
	storageManager interfaces.StorageManager,
	geocodeService interfaces.GeocodeService,
	matcher *matching.Service,
	config *common.Config,
	logger arbor.ILogger,
) *Processor {
	return &Processor{
		blobs:   blobs,
		queue:   storageManager.QueueStorage(),
		loads:   storageManager.LoadStorage(),
		tenants: storageManager.TenantStorage(),
		hints:   storageManager.HintStorage(),
		geocode: geocodeService,
		matcher: matcher,
		config:  config,
		logger:  logger,
	}
}

// ProcessItem runs one queue item through the pipeline and returns how many
// match events fired. Any returned error means the item should be failed for
// retry; data-quality problems are recorded on the load, not returned.
func (p *Processor) ProcessItem(ctx context.Context, item *models.QueueItem) (int, error) {
	log := p.logger.WithCorrelationId(item.MessageID)
	stepTimeout := p.config.Pipeline.StepTimeoutDuration()

	// Fetch raw payload
	fetchCtx, cancel := context.WithTimeout(ctx, stepTimeout)
	raw, err := p.blobs.Get(fetchCtx, item.BlobBucket, item.BlobPath)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("fetching raw payload %s/%s: %w", item.BlobBucket, item.BlobPath, err)
	}

	// Structural failures fail fast; there is nothing to partially process.
	envelope, err := mailparse.Parse(raw)
	if err != nil {
		return 0, fmt.Errorf("parsing message structure: %w", err)
	}

	tenant, err := p.resolveTenant(ctx, item, envelope)
	if err != nil {
		return 0, err
	}

	record := p.buildRecord(ctx, item, tenant, envelope, log)

	persistCtx, cancel := context.WithTimeout(ctx, stepTimeout)
	stored, created, err := p.loads.GetOrCreateByMessageID(persistCtx, record)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("persisting load record: %w", err)
	}
	if !created {
		// Idempotence: a re-delivered message id is a no-op completion.
		log.Info().Str("load_id", stored.ID).Msg("Load already persisted for message, completing")
		return 0, nil
	}

	log.Info().
		Str("load_id", record.ID).
		Str("source", string(record.Parsed.Source)).
		Str("dedup_status", string(record.DedupStatus)).
		Str("geocode_status", string(record.GeocodeStatus)).
		Bool("has_issues", record.HasIssues).
		Msg("Load persisted")

	// Matching failures never fail an otherwise-persisted load.
	matches := p.matcher.MatchLoad(ctx, tenant, record)
	return matches, nil
}

// resolveTenant prefers the tenant already recorded on the item, falling back
// to mailbox resolution from the envelope recipient.
func (p *Processor) resolveTenant(ctx context.Context, item *models.QueueItem, envelope *mailparse.Envelope) (*models.Tenant, error) {
	stepCtx, cancel := context.WithTimeout(ctx, p.config.Pipeline.StepTimeoutDuration())
	defer cancel()

	if item.TenantID != "" {
		tenant, err := p.tenants.Get(stepCtx, item.TenantID)
		if err != nil {
			return nil, fmt.Errorf("loading tenant %s: %w", item.TenantID, err)
		}
		return tenant, nil
	}

	var tenant *models.Tenant
	for _, address := range envelope.To {
		resolved, err := p.tenants.ResolveByMailbox(stepCtx, address)
		if err == nil {
			tenant = resolved
			break
		}
		if !errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("resolving tenant for mailbox %q: %w", address, err)
		}
	}
	if tenant == nil {
		return nil, fmt.Errorf("no tenant owns any recipient of message %s", item.MessageID)
	}

	if err := p.queue.SetTenant(stepCtx, item.MessageID, tenant.ID); err != nil {
		p.logger.Warn().Err(err).Str("message_id", item.MessageID).Msg("Recording resolved tenant on queue item failed")
	}
	item.TenantID = tenant.ID
	return tenant, nil
}

// buildRecord parses, geocodes and fingerprints the envelope into a load
// record. Data-quality problems land in the record's issue list; this step
// never fails the item.
func (p *Processor) buildRecord(ctx context.Context, item *models.QueueItem, tenant *models.Tenant, envelope *mailparse.Envelope, log arbor.ILogger) *models.LoadRecord {
	now := time.Now().UTC()

	source := parsers.Detect(envelope)
	hintPacks := p.tenantHints(ctx, tenant.ID, source)
	parsed := parsers.Parse(envelope, hintPacks)

	parsed.ExpiresAt = parsers.CorrectExpiration(
		parsed.ExpiresAt, parsed.PostedAt, now, p.config.Dedup.GraceWindowDuration())

	record := &models.LoadRecord{
		ID:         common.NewLoadID(),
		MessageID:  item.MessageID,
		TenantID:   tenant.ID,
		Parsed:     *parsed,
		ReceivedAt: receivedAt(item, envelope, now),
		CreatedAt:  now,
	}

	p.geocodeOrigin(ctx, record, log)
	p.applyDedup(ctx, record, log)

	if record.Parsed.VehicleType == "" {
		addIssue(record, "missing vehicle type")
	}
	if !record.Parsed.HasOrigin() {
		addIssue(record, "missing origin location")
	}
	if !record.Parsed.HasDestination() {
		addIssue(record, "missing destination location")
	}

	return record
}

// geocodeOrigin resolves origin coordinates, backfilling a missing city from
// the zip code when possible. A failed geocode is an issue, never an error.
func (p *Processor) geocodeOrigin(ctx context.Context, record *models.LoadRecord, log arbor.ILogger) {
	stepCtx, cancel := context.WithTimeout(ctx, p.config.Pipeline.StepTimeoutDuration())
	defer cancel()

	parsed := &record.Parsed
	if parsed.OriginCity == "" && parsed.OriginZip != "" {
		if city, state, found := p.geocode.ResolveCityFromZip(stepCtx, parsed.OriginZip); found {
			parsed.OriginCity = city
			if parsed.OriginSt == "" {
				parsed.OriginSt = state
			}
			log.Debug().Str("zip", parsed.OriginZip).Str("city", city).Msg("Backfilled origin city from zip")
		}
	}

	if !parsed.HasOrigin() {
		record.GeocodeStatus = models.GeocodeSkipped
		return
	}

	coords, found := p.geocode.Resolve(stepCtx, parsed.OriginCity, parsed.OriginSt)
	if !found {
		record.GeocodeStatus = models.GeocodeMiss
		addIssue(record, fmt.Sprintf("geocode failed for %s, %s", parsed.OriginCity, parsed.OriginSt))
		return
	}
	record.GeocodeStatus = models.GeocodeOK
	record.OriginLat = coords.Lat
	record.OriginLng = coords.Lng
}

// applyDedup canonicalizes, fingerprints and classifies the load against
// history. Ineligible loads skip dedup with a reason and keep flowing.
func (p *Processor) applyDedup(ctx context.Context, record *models.LoadRecord, log arbor.ILogger) {
	canonical := dedup.Canonicalize(&record.Parsed)

	eligible, reason := dedup.IsDedupEligible(canonical)
	if !eligible {
		record.DedupStatus = models.DedupIneligible
		record.DedupSkipReason = reason
		log.Debug().Str("reason", reason).Msg("Dedup skipped, load not eligible")
		return
	}

	fingerprint, err := dedup.Fingerprint(canonical)
	if err != nil {
		record.DedupStatus = models.DedupIneligible
		record.DedupSkipReason = "fingerprint_failed"
		log.Warn().Err(err).Msg("Fingerprint computation failed")
		return
	}
	record.Fingerprint = fingerprint
	record.FingerprintVersion = dedup.FingerprintVersion
	record.LegacyHash = dedup.LegacyHash(canonical)

	stepCtx, cancel := context.WithTimeout(ctx, p.config.Pipeline.StepTimeoutDuration())
	defer cancel()

	// Archive the canonical payload keyed by fingerprint, best-effort.
	if payload, serr := dedup.Serialize(canonical); serr == nil {
		if uerr := p.loads.UpsertLoadContent(stepCtx, fingerprint, payload, dedup.FingerprintVersion, string(record.Parsed.Source)); uerr != nil {
			log.Debug().Err(uerr).Msg("Archiving canonical payload failed")
		}
	}

	// Strict duplicate within the fingerprint lookback window.
	since := record.ReceivedAt.Add(-p.config.Dedup.FingerprintWindowDuration())
	original, err := p.loads.FindOriginalByFingerprint(stepCtx, record.TenantID, fingerprint, since)
	if err == nil && original != nil {
		record.DedupStatus = models.DedupDuplicate
		record.OriginalLoadID = original.ID
		log.Info().Str("original_load_id", original.ID).Msg("Duplicate load detected")
		return
	}
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		log.Warn().Err(err).Msg("Fingerprint lookup failed, treating load as new")
		record.DedupStatus = models.DedupNew
		return
	}

	// Looser update detection (rate change etc.) within the shorter window.
	legacySince := record.ReceivedAt.Add(-p.config.Dedup.LegacyWindowDuration())
	prior, err := p.loads.FindByLegacyHash(stepCtx, record.TenantID, record.LegacyHash, legacySince)
	if err == nil && prior != nil && prior.Fingerprint != fingerprint {
		record.DedupStatus = models.DedupUpdate
		record.OriginalLoadID = prior.ID
		log.Info().Str("original_load_id", prior.ID).Msg("Load update detected")
		return
	}

	record.DedupStatus = models.DedupNew
}

func (p *Processor) tenantHints(ctx context.Context, tenantID string, source models.LoadSource) []*models.HintPack {
	stepCtx, cancel := context.WithTimeout(ctx, p.config.Pipeline.StepTimeoutDuration())
	defer cancel()

	packs, err := p.hints.ListForTenant(stepCtx, tenantID, string(source))
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		p.logger.Warn().Err(err).Str("tenant_id", tenantID).Msg("Loading parser hints failed")
	}
	return packs
}

func receivedAt(item *models.QueueItem, envelope *mailparse.Envelope, fallback time.Time) time.Time {
	if !envelope.Date.IsZero() {
		return envelope.Date.UTC()
	}
	if !item.QueuedAt.IsZero() {
		return item.QueuedAt.UTC()
	}
	return fallback
}

func addIssue(record *models.LoadRecord, issue string) {
	record.HasIssues = true
	record.Issues = append(record.Issues, issue)
}
