package db

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps snapshots for the lifetime of the process only
type MemoryStore struct {
	m    *sync.Mutex
	data []Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:    new(sync.Mutex),
		data: []Snapshot{},
	}
}

func (ms *MemoryStore) PendingSnapshot(_ context.Context) (*Snapshot, error) {
	ms.m.Lock()
	defer ms.m.Unlock()
	var newest *Snapshot
	for i := range ms.data {
		s := ms.data[i]
		if s.RevertedAt != nil {
			continue
		}
		if newest == nil || s.CapturedAt >= newest.CapturedAt {
			newest = &s
		}
	}
	return newest, nil
}

func (ms *MemoryStore) SaveSnapshot(_ context.Context, snapshot Snapshot) error {
	ms.m.Lock()
	defer ms.m.Unlock()
	snapshot.RevertedAt = nil
	for i := range ms.data {
		if ms.data[i].RunID == snapshot.RunID {
			ms.data[i] = snapshot
			return nil
		}
	}
	ms.data = append(ms.data, snapshot)
	return nil
}

func (ms *MemoryStore) MarkReverted(_ context.Context, runID string, at time.Time) error {
	ms.m.Lock()
	defer ms.m.Unlock()
	ts := at.Unix()
	for i := range ms.data {
		if ms.data[i].RunID == runID {
			ms.data[i].RevertedAt = &ts
		}
	}
	return nil
}

func (ms *MemoryStore) Close() error {
	return nil
}
