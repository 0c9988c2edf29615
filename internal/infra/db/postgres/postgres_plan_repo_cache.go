package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"iptv-subscription-platform/internal/domain/model"
	"iptv-subscription-platform/internal/domain/ports/repository"
	"iptv-subscription-platform/internal/infra/metrics"
	red "iptv-subscription-platform/internal/infra/redis"
)

var _ repository.PlanRepository = (*planRepoCacheDecorator)(nil)

// planRepoCacheDecorator caches plan reads in Redis. Plans change rarely and
// every checkout and provisioning run reads one.
type planRepoCacheDecorator struct {
	inner repository.PlanRepository
	cache *red.Client
	ttl   time.Duration
}

func NewPlanRepoCacheDecorator(inner repository.PlanRepository, cache *red.Client) repository.PlanRepository {
	return &planRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   1 * time.Hour,
	}
}

func (d *planRepoCacheDecorator) FindByID(ctx context.Context, id string) (*model.Plan, error) {
	key := fmt.Sprintf("plan:%s", id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("plan", "hit")
		var plan model.Plan
		if json.Unmarshal([]byte(val), &plan) == nil {
			return &plan, nil
		}
	}

	metrics.IncCacheRequest("plan", "miss")
	plan, err := d.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		bytes, _ := json.Marshal(plan)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return plan, nil
}

func (d *planRepoCacheDecorator) FindByWooProductID(ctx context.Context, wooProductID int64) (*model.Plan, error) {
	// Not on the hot path; skip the cache.
	return d.inner.FindByWooProductID(ctx, wooProductID)
}

func (d *planRepoCacheDecorator) ListActive(ctx context.Context) ([]*model.Plan, error) {
	key := "plans:active"
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("plan_list", "hit")
		var plans []*model.Plan
		if json.Unmarshal([]byte(val), &plans) == nil {
			return plans, nil
		}
	}

	metrics.IncCacheRequest("plan_list", "miss")
	plans, err := d.inner.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(plans) > 0 {
		bytes, _ := json.Marshal(plans)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return plans, nil
}

func (d *planRepoCacheDecorator) ListAll(ctx context.Context) ([]*model.Plan, error) {
	return d.inner.ListAll(ctx)
}

// Write operations invalidate both the single-plan key and the list key.
func (d *planRepoCacheDecorator) Save(ctx context.Context, plan *model.Plan) error {
	d.cache.Del(ctx, fmt.Sprintf("plan:%s", plan.ID), "plans:active")
	return d.inner.Save(ctx, plan)
}

func (d *planRepoCacheDecorator) Delete(ctx context.Context, id string) error {
	d.cache.Del(ctx, fmt.Sprintf("plan:%s", id), "plans:active")
	return d.inner.Delete(ctx, id)
}
