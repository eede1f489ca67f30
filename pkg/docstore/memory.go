package docstore

import (
	"context"
	"sync"
)

// Memory is an in-process Store used for tests and local development. Writes
// notify every open subscription synchronously, which mirrors the
// every-session-observes-every-write behavior of the managed backend.
type Memory struct {
	mu     sync.Mutex
	docs   map[string][]byte
	subs   map[string]map[int]*memSub
	nextID int
}

type memSub struct {
	onChange func([]byte)
}

func NewMemory() *Memory {
	return &Memory{
		docs: map[string][]byte{},
		subs: map[string]map[int]*memSub{},
	}
}

func docKey(collection, id string) string {
	return collection + "/" + id
}

func (m *Memory) Get(_ context.Context, collection, id string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.docs[docKey(collection, id)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

func (m *Memory) Set(_ context.Context, collection, id string, data []byte) error {
	key := docKey(collection, id)
	stored := make([]byte, len(data))
	copy(stored, data)

	m.mu.Lock()
	m.docs[key] = stored
	listeners := make([]*memSub, 0, len(m.subs[key]))
	for _, sub := range m.subs[key] {
		listeners = append(listeners, sub)
	}
	m.mu.Unlock()

	// Deliver outside the store lock so listeners may re-enter Get/Set.
	for _, sub := range listeners {
		payload := make([]byte, len(stored))
		copy(payload, stored)
		sub.onChange(payload)
	}
	return nil
}

func (m *Memory) Subscribe(_ context.Context, collection, id string, onChange func([]byte), _ func(error)) (CancelFunc, error) {
	key := docKey(collection, id)

	m.mu.Lock()
	m.nextID++
	subID := m.nextID
	if m.subs[key] == nil {
		m.subs[key] = map[int]*memSub{}
	}
	m.subs[key][subID] = &memSub{onChange: onChange}
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs[key], subID)
			m.mu.Unlock()
		})
	}, nil
}

// SubscriberCount reports the open subscriptions for one document. Test helper.
func (m *Memory) SubscriberCount(collection, id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs[docKey(collection, id)])
}
