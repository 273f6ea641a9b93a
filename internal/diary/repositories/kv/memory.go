package kv

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/dmitrijs2005/diarykeeper/internal/common"
)

type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string]string
	quota int64
}

func NewMemoryStore(quota int64) *MemoryStore {
	return &MemoryStore{data: make(map[string]string), quota: quota}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.quota > 0 {
		usage := m.usageLocked()
		var old int64
		if v, ok := m.data[key]; ok {
			old = pairSize(key, v)
		}
		required := pairSize(key, value)
		if usage-old+required > m.quota {
			return &common.QuotaError{Key: key, Required: required, Usage: usage, Quota: m.quota}
		}
	}

	m.data[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) Usage(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.usageLocked(), nil
}

func (m *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := []string{}
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) usageLocked() int64 {
	var n int64
	for k, v := range m.data {
		n += pairSize(k, v)
	}
	return n
}
