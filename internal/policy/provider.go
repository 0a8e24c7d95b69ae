// internal/policy/provider.go

// Package policy resolves per-organization consultation payment policies.
// Lookups go through a short-lived redis cache in front of postgres; any
// failure degrades to the zero policy so a storage outage never blocks a
// conversation.
package policy

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"intake-workers/internal/common/logger"
	"intake-workers/internal/models"
)

const cacheKeyPrefix = "org:payment-policy:"

type Provider struct {
	db       *sql.DB
	cache    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

func NewProvider(db *sql.DB, cache *redis.Client, cacheTTL time.Duration, log logger.Logger) *Provider {
	return &Provider{
		db:       db,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger: log.With(map[string]interface{}{
			"component": "policy-provider",
		}),
	}
}

// GetPaymentPolicy returns the organization's policy, preferring the cache.
// An unknown organization or a storage failure yields the zero policy and
// an error the caller may log; callers must treat the policy as usable
// either way.
func (p *Provider) GetPaymentPolicy(ctx context.Context, organizationID string) (models.PaymentPolicy, error) {
	if cached, ok := p.fromCache(ctx, organizationID); ok {
		return cached, nil
	}

	policy, err := p.fromDatabase(ctx, organizationID)
	if err != nil {
		return models.PaymentPolicy{}, err
	}

	p.toCache(ctx, organizationID, policy)
	return policy, nil
}

func (p *Provider) fromCache(ctx context.Context, organizationID string) (models.PaymentPolicy, bool) {
	if p.cache == nil {
		return models.PaymentPolicy{}, false
	}

	raw, err := p.cache.Get(ctx, cacheKeyPrefix+organizationID).Result()
	if err != nil {
		if err != redis.Nil {
			p.logger.WithError(err).Warn("policy cache read failed", map[string]interface{}{
				"organizationId": organizationID,
			})
		}
		return models.PaymentPolicy{}, false
	}

	var policy models.PaymentPolicy
	if err := json.Unmarshal([]byte(raw), &policy); err != nil {
		p.logger.WithError(err).Warn("policy cache entry corrupt, falling through", map[string]interface{}{
			"organizationId": organizationID,
		})
		return models.PaymentPolicy{}, false
	}
	return policy, true
}

func (p *Provider) fromDatabase(ctx context.Context, organizationID string) (models.PaymentPolicy, error) {
	query := `
		SELECT requires_payment, consultation_fee, payment_link
		FROM organization_payment_policies
		WHERE organization_id = $1`

	var policy models.PaymentPolicy
	var paymentLink sql.NullString

	err := p.db.QueryRowContext(ctx, query, organizationID).
		Scan(&policy.RequiresPayment, &policy.ConsultationFee, &paymentLink)
	if err == sql.ErrNoRows {
		// Organizations without a row simply do not charge for intake.
		return models.PaymentPolicy{}, nil
	}
	if err != nil {
		return models.PaymentPolicy{}, fmt.Errorf("payment policy query failed for %s: %w", organizationID, err)
	}

	if paymentLink.Valid {
		policy.PaymentLink = paymentLink.String
	}
	return policy, nil
}

// toCache is best effort; a write failure only costs a future database hit.
func (p *Provider) toCache(ctx context.Context, organizationID string, policy models.PaymentPolicy) {
	if p.cache == nil {
		return
	}

	raw, err := json.Marshal(policy)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, cacheKeyPrefix+organizationID, raw, p.cacheTTL).Err(); err != nil {
		p.logger.WithError(err).Warn("policy cache write failed", map[string]interface{}{
			"organizationId": organizationID,
		})
	}
}
