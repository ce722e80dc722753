package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dealflow-tools/onboarding_bot/config"
	"github.com/dealflow-tools/onboarding_bot/internal/model"
	"github.com/dealflow-tools/onboarding_bot/utils"
	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("not found in cache")

const dealsKey = "deals"

func dealKey(dealID int64) string {
	return fmt.Sprintf("deal:%d", dealID)
}

type RedisCache struct {
	redis *redis.Client
	cfg   *config.Config
}

func NewRedisCache(redisClient *redis.Client, cfg *config.Config) *RedisCache {
	return &RedisCache{redis: redisClient, cfg: cfg}
}

// SetDeals stores the full deals listing plus a per-deal entry, so a single
// deal can be resolved without refetching the list.
func (r *RedisCache) SetDeals(ctx context.Context, deals []model.Deal) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("start SetDeals", slog.String("rqID", rqID))

	dealsJson, err := json.Marshal(deals)
	if err != nil {
		slog.Error("can't marshal deals in SetDeals", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return errors.New("can't marshal deals")
	}

	pipe := r.redis.Pipeline()
	pipe.Set(ctx, dealsKey, dealsJson, r.cfg.Cache.DealsExpiration)

	for _, deal := range deals {
		dealJson, err := json.Marshal(deal)
		if err != nil {
			slog.Error(
				"can't marshal deal in SetDeals",
				slog.String("rqID", rqID),
				slog.String("err", err.Error()),
				slog.Any("deal", deal),
			)
			return errors.New("can't marshal deal")
		}
		pipe.Set(ctx, dealKey(deal.ID), dealJson, r.cfg.Cache.DealsExpiration)
	}

	_, err = pipe.Exec(ctx)
	if err != nil {
		slog.Error("failed on pipe.Exec", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("SetDeals completed", slog.String("rqID", rqID))

	return nil
}

func (r *RedisCache) GetDeals(ctx context.Context) ([]model.Deal, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("GetDeals start", slog.String("rqID", rqID))

	res, err := r.redis.Get(ctx, dealsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		slog.Error("failed on redis.Get", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", dealsKey))
		return nil, err
	}

	var deals []model.Deal
	err = json.Unmarshal([]byte(res), &deals)
	if err != nil {
		slog.Error(
			"can't unmarshal deals in GetDeals",
			slog.String("rqID", rqID),
			slog.String("err", err.Error()),
			slog.String("resultFromRedis", res),
		)
		return nil, errors.New("can't unmarshal deals")
	}

	slog.Debug("GetDeals finished", slog.String("rqID", rqID))

	return deals, nil
}

func (r *RedisCache) GetDeal(ctx context.Context, dealID int64) (model.Deal, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("GetDeal start", slog.String("rqID", rqID), slog.Int64("dealID", dealID))

	res, err := r.redis.Get(ctx, dealKey(dealID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Deal{}, ErrNotFound
		}
		slog.Error("failed on redis.Get", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", dealKey(dealID)))
		return model.Deal{}, err
	}

	deal := model.Deal{}
	err = json.Unmarshal([]byte(res), &deal)
	if err != nil {
		slog.Error(
			"can't unmarshal deal in GetDeal",
			slog.String("rqID", rqID),
			slog.String("err", err.Error()),
			slog.String("resultFromRedis", res),
		)
		return model.Deal{}, errors.New("can't unmarshal deal")
	}

	slog.Debug("GetDeal finished", slog.String("rqID", rqID))

	return deal, nil
}
