package store

import (
	"context"
	"sync"
	"time"

	"github.com/rushteam/ripplekit/core"
)

// MemoryStore 是内存实现的 Store，用于测试/开发/原型。
// 支持 TTL（过期时间），但进程重启后数据丢失。
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*entry
}

type entry struct {
	value []byte
	ttl   *time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]*entry),
	}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[key]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	if e.ttl != nil && time.Now().After(*e.ttl) {
		return nil, core.ErrStoreNotFound
	}
	return e.value, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := &entry{value: value}
	if len(ttl) > 0 && ttl[0] > 0 {
		expire := time.Now().Add(time.Duration(ttl[0]) * time.Second)
		e.ttl = &expire
	}
	m.data[key] = e
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

func (m *MemoryStore) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string][]byte, len(keys))
	now := time.Now()
	for _, k := range keys {
		e, ok := m.data[k]
		if !ok {
			continue
		}
		if e.ttl != nil && now.After(*e.ttl) {
			continue
		}
		result[k] = e.value
	}
	return result, nil
}

func (m *MemoryStore) BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expire *time.Time
	if len(ttl) > 0 && ttl[0] > 0 {
		t := time.Now().Add(time.Duration(ttl[0]) * time.Second)
		expire = &t
	}
	for k, v := range kvs {
		m.data[k] = &entry{value: v, ttl: expire}
	}
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

var _ core.Store = (*MemoryStore)(nil)

// MemoryHistoryStore 是内存实现的用户正反馈历史，用于测试与离线流程。
// 历史来自训练集的正样本快照，追加写入并发安全。
type MemoryHistoryStore struct {
	mu        sync.RWMutex
	histories map[int64][]int64
}

func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{
		histories: make(map[int64][]int64),
	}
}

// NewMemoryHistoryStoreFrom 从交互样本构建历史快照，只保留正样本。
func NewMemoryHistoryStoreFrom(rows []core.Interaction) *MemoryHistoryStore {
	h := NewMemoryHistoryStore()
	for _, row := range rows {
		if row.Label > 0.5 {
			h.Append(row.UserID, row.ItemID)
		}
	}
	return h
}

// GetUserHistory 用户不存在时返回空列表，不报错。
func (h *MemoryHistoryStore) GetUserHistory(_ context.Context, userID int64) ([]int64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	history := h.histories[userID]
	out := make([]int64, len(history))
	copy(out, history)
	return out, nil
}

// Append 追加一条正反馈记录。
func (h *MemoryHistoryStore) Append(userID, itemID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.histories[userID] = append(h.histories[userID], itemID)
}

// SetUserHistory 覆盖写入用户历史。
func (h *MemoryHistoryStore) SetUserHistory(userID int64, itemIDs []int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	history := make([]int64, len(itemIDs))
	copy(history, itemIDs)
	h.histories[userID] = history
}

var _ core.HistoryStore = (*MemoryHistoryStore)(nil)
