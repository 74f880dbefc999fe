// Пакет memdb реализует контракт БД в памяти, для тестов.
package memdb

import (
	"context"
	"sync"

	"github.com/Osdague92/fullstack-docker/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type item = domain.Item

// MemDB хранит объекты в порядке вставки, id такого же
// формата, как у mongo.
type MemDB struct {
	mu    sync.RWMutex
	order []string
	data  map[string]item
}

func New(items ...item) *MemDB {
	m := &MemDB{data: make(map[string]item)}
	for _, it := range items {
		if it.ID == "" {
			it.ID = primitive.NewObjectID().Hex()
		}
		m.order = append(m.order, it.ID)
		m.data[it.ID] = it
	}
	return m
}

func validID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

// Items возвращает списком все объекты из БД.
func (m *MemDB) Items(context.Context) ([]item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]item, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.data[id])
	}
	return out, nil
}

// Item находит объект по id.
func (m *MemDB) Item(_ context.Context, id string) (item, error) {
	if !validID(id) {
		return item{}, domain.ErrNotFound
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, ok := m.data[id]
	if !ok {
		return item{}, domain.ErrNotFound
	}
	return it, nil
}

// AddItem добавляет объект с новым id.
func (m *MemDB) AddItem(_ context.Context, in domain.ItemInput) (item, error) {
	it := item{
		ID:          primitive.NewObjectID().Hex(),
		Name:        in.Name,
		Description: in.Description,
	}
	m.mu.Lock()
	m.order = append(m.order, it.ID)
	m.data[it.ID] = it
	m.mu.Unlock()
	return it, nil
}

// ReplaceItem перезаписывает оба поля объекта.
func (m *MemDB) ReplaceItem(_ context.Context, id string, in domain.ItemInput) (domain.ReplaceResult, error) {
	if !validID(id) {
		return domain.ReplaceResult{}, domain.ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.data[id]
	if !ok {
		return domain.ReplaceResult{}, nil
	}
	if it.Name == in.Name && it.Description == in.Description {
		return domain.ReplaceResult{Matched: true}, nil
	}
	it.Name, it.Description = in.Name, in.Description
	m.data[id] = it
	return domain.ReplaceResult{Matched: true, Modified: true}, nil
}

// DeleteItem удаляет из БД объект по id.
func (m *MemDB) DeleteItem(_ context.Context, id string) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.data, id)
	for i := range m.order {
		if m.order[i] == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemDB) Ping(context.Context) error { return nil }

// Close закрывает подключение к БД.
func (m *MemDB) Close() error { return nil }
