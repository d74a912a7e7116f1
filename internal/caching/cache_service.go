package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"stocktake/internal/models"
)

type CacheService interface {
	// Counting session state
	GetSession(ctx context.Context, sessionID uuid.UUID) (*models.CountingSession, error)
	SetSession(ctx context.Context, session *models.CountingSession, ttl time.Duration) error
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error

	// Product group cache for the form selectors
	GetProductGroups(ctx context.Context) ([]string, error)
	SetProductGroups(ctx context.Context, groups []string, ttl time.Duration) error
	DeleteProductGroups(ctx context.Context) error

	// Shopping summary cache (badge counts), refreshed by the background job
	GetShoppingSummary(ctx context.Context) (*models.ShoppingSummary, error)
	SetShoppingSummary(ctx context.Context, summary *models.ShoppingSummary, ttl time.Duration) error

	// Health probe write
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port style addresses as well as bare host:port
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func sessionKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("stocktake:session:%s", sessionID.String())
}

const (
	productGroupsKey   = "stocktake:product-groups"
	shoppingSummaryKey = "stocktake:shopping-summary"
)

func (r *redisCacheService) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.CountingSession, error) {
	data, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var session models.CountingSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *redisCacheService) SetSession(ctx context.Context, session *models.CountingSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKey(session.ID), data, ttl).Err()
}

func (r *redisCacheService) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	return r.client.Del(ctx, sessionKey(sessionID)).Err()
}

func (r *redisCacheService) GetProductGroups(ctx context.Context) ([]string, error) {
	data, err := r.client.Get(ctx, productGroupsKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var groups []string
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *redisCacheService) SetProductGroups(ctx context.Context, groups []string, ttl time.Duration) error {
	data, err := json.Marshal(groups)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, productGroupsKey, data, ttl).Err()
}

func (r *redisCacheService) DeleteProductGroups(ctx context.Context) error {
	return r.client.Del(ctx, productGroupsKey).Err()
}

func (r *redisCacheService) GetShoppingSummary(ctx context.Context) (*models.ShoppingSummary, error) {
	data, err := r.client.Get(ctx, shoppingSummaryKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var summary models.ShoppingSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *redisCacheService) SetShoppingSummary(ctx context.Context, summary *models.ShoppingSummary, ttl time.Duration) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, shoppingSummaryKey, data, ttl).Err()
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}
