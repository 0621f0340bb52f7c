package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ExportCache 批量预测结果的下载窗口。超过容量或过期的结果会被丢弃。
type ExportCache struct {
	cache *expirable.LRU[string, []byte]
	ttl   time.Duration
}

// NewExportCache 创建下载窗口
func NewExportCache(capacity int, ttl time.Duration) *ExportCache {
	return &ExportCache{
		cache: expirable.NewLRU[string, []byte](capacity, nil, ttl),
		ttl:   ttl,
	}
}

// Put 保存结果并返回下载ID
func (c *ExportCache) Put(payload []byte) (string, time.Time) {
	id := uuid.NewString()
	c.cache.Add(id, payload)
	return id, time.Now().Add(c.ttl).UTC()
}

// Get 获取结果，过期后返回false
func (c *ExportCache) Get(id string) ([]byte, bool) {
	return c.cache.Get(id)
}

// Len 当前可下载的结果数
func (c *ExportCache) Len() int {
	return c.cache.Len()
}
