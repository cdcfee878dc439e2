package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"codemail/backend/internal/domain"
)

// Cache Redis 缓存实现，挡在 SQL 存储前面吸收轮询读放大。
type Cache struct {
	client *redis.Client
	ctx    context.Context
}

// NewCache 创建 Redis 缓存实例
func NewCache(addr, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: 10,
	})

	ctx := context.Background()

	// 测试连接
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Cache{
		client: client,
		ctx:    ctx,
	}, nil
}

// ========== 邮箱缓存 ==========

// CacheMailbox 缓存邮箱凭证信息
func (c *Cache) CacheMailbox(mailbox *domain.Mailbox, ttl time.Duration) error {
	key := fmt.Sprintf("mailbox:%s", mailbox.Code)
	data, err := json.Marshal(mailbox)
	if err != nil {
		return err
	}
	return c.client.Set(c.ctx, key, data, ttl).Err()
}

// GetCachedMailbox 获取缓存的邮箱凭证信息
func (c *Cache) GetCachedMailbox(code string) (*domain.Mailbox, error) {
	key := fmt.Sprintf("mailbox:%s", code)
	data, err := c.client.Get(c.ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("mailbox not found in cache")
		}
		return nil, err
	}

	var mailbox domain.Mailbox
	if err := json.Unmarshal([]byte(data), &mailbox); err != nil {
		return nil, err
	}

	return &mailbox, nil
}

// DeleteCachedMailbox 删除缓存的邮箱凭证信息
func (c *Cache) DeleteCachedMailbox(code string) error {
	key := fmt.Sprintf("mailbox:%s", code)
	return c.client.Del(c.ctx, key).Err()
}

// ========== 收件箱缓存 ==========

// CacheEmailList 缓存某编码下的邮件列表
func (c *Cache) CacheEmailList(code string, emails []domain.Email, ttl time.Duration) error {
	key := fmt.Sprintf("emails:%s", code)
	data, err := json.Marshal(emails)
	if err != nil {
		return err
	}
	return c.client.Set(c.ctx, key, data, ttl).Err()
}

// GetCachedEmailList 获取缓存的邮件列表
func (c *Cache) GetCachedEmailList(code string) ([]domain.Email, error) {
	key := fmt.Sprintf("emails:%s", code)
	data, err := c.client.Get(c.ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("email list not found in cache")
		}
		return nil, err
	}

	var emails []domain.Email
	if err := json.Unmarshal([]byte(data), &emails); err != nil {
		return nil, err
	}

	return emails, nil
}

// DeleteCachedEmailList 删除缓存的邮件列表
func (c *Cache) DeleteCachedEmailList(code string) error {
	key := fmt.Sprintf("emails:%s", code)
	return c.client.Del(c.ctx, key).Err()
}

// ========== 工具方法 ==========

// Health 检查 Redis 连接状态
func (c *Cache) Health() error {
	return c.client.Ping(c.ctx).Err()
}

// Close 关闭 Redis 连接
func (c *Cache) Close() error {
	return c.client.Close()
}
