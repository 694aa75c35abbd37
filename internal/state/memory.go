package state

import (
	"context"
	"sync"

	"github.com/angeloszaimis/vault-environment/internal/environment"
)

type MemoryStore struct {
	mutex sync.RWMutex
	doc   document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		doc: document{Accounts: make(map[string]environment.URLData)},
	}
}

func (m *MemoryStore) ActiveUserID(_ context.Context) (string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.doc.ActiveUserID, nil
}

func (m *MemoryStore) EnvironmentURLs(_ context.Context, userID string) (environment.URLData, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	urls, ok := m.doc.Accounts[userID]
	return urls, ok, nil
}

func (m *MemoryStore) PreAuthURLs(_ context.Context) (environment.URLData, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.doc.PreAuth == nil {
		return environment.URLData{}, false, nil
	}
	return *m.doc.PreAuth, true, nil
}

func (m *MemoryStore) SetPreAuthURLs(_ context.Context, urls environment.URLData) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.doc.PreAuth = &urls
	return nil
}

func (m *MemoryStore) SetActiveAccount(_ context.Context, userID string, urls environment.URLData) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.doc.ActiveUserID = userID
	m.doc.Accounts[userID] = urls
	return nil
}

func (m *MemoryStore) SignOut(_ context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.doc.ActiveUserID = ""
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
