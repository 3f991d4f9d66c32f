package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"aquabill/internal/models"

	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Customer caching
	GetCustomer(ctx context.Context, meterNumber string) (*models.Customer, error)
	SetCustomer(ctx context.Context, customer *models.Customer, ttl time.Duration) error
	DeleteCustomer(ctx context.Context, meterNumber string) error

	// Dashboard/report caching
	GetReport(ctx context.Context, name string, dest interface{}) (bool, error)
	SetReport(ctx context.Context, name string, report interface{}, ttl time.Duration) error
	DeleteReport(ctx context.Context, name string) error

	// Cache invalidation
	InvalidateAll(ctx context.Context) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port as well as plain host:port
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

func customerKey(meterNumber string) string {
	return fmt.Sprintf("aquabill:customer:%s", meterNumber)
}

func reportKey(name string) string {
	return fmt.Sprintf("aquabill:report:%s", name)
}

func (r *redisCacheService) GetCustomer(ctx context.Context, meterNumber string) (*models.Customer, error) {
	data, err := r.client.Get(ctx, customerKey(meterNumber)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var customer models.Customer
	if err := json.Unmarshal(data, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *redisCacheService) SetCustomer(ctx context.Context, customer *models.Customer, ttl time.Duration) error {
	data, err := json.Marshal(customer)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, customerKey(customer.MeterNumber), data, ttl).Err()
}

func (r *redisCacheService) DeleteCustomer(ctx context.Context, meterNumber string) error {
	return r.client.Del(ctx, customerKey(meterNumber)).Err()
}

func (r *redisCacheService) GetReport(ctx context.Context, name string, dest interface{}) (bool, error) {
	data, err := r.client.Get(ctx, reportKey(name)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil // cache miss
		}
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisCacheService) SetReport(ctx context.Context, name string, report interface{}, ttl time.Duration) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, reportKey(name), data, ttl).Err()
}

func (r *redisCacheService) DeleteReport(ctx context.Context, name string) error {
	return r.client.Del(ctx, reportKey(name)).Err()
}

func (r *redisCacheService) InvalidateAll(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, "aquabill:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
