package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/angeloszaimis/vault-environment/internal/environment"
)

// FileStore keeps settings in a single YAML file. The file is re-read on
// every call so edits made by other processes are picked up.
type FileStore struct {
	mutex sync.Mutex
	path  string
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("state file path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	return &FileStore{path: path}, nil
}

func (f *FileStore) ActiveUserID(_ context.Context) (string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	doc, err := f.read()
	if err != nil {
		return "", err
	}
	return doc.ActiveUserID, nil
}

func (f *FileStore) EnvironmentURLs(_ context.Context, userID string) (environment.URLData, bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	doc, err := f.read()
	if err != nil {
		return environment.URLData{}, false, err
	}
	urls, ok := doc.Accounts[userID]
	return urls, ok, nil
}

func (f *FileStore) PreAuthURLs(_ context.Context) (environment.URLData, bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	doc, err := f.read()
	if err != nil {
		return environment.URLData{}, false, err
	}
	if doc.PreAuth == nil {
		return environment.URLData{}, false, nil
	}
	return *doc.PreAuth, true, nil
}

func (f *FileStore) SetPreAuthURLs(_ context.Context, urls environment.URLData) error {
	return f.update(func(doc *document) {
		doc.PreAuth = &urls
	})
}

func (f *FileStore) SetActiveAccount(_ context.Context, userID string, urls environment.URLData) error {
	return f.update(func(doc *document) {
		doc.ActiveUserID = userID
		doc.Accounts[userID] = urls
	})
}

func (f *FileStore) SignOut(_ context.Context) error {
	return f.update(func(doc *document) {
		doc.ActiveUserID = ""
	})
}

func (f *FileStore) Close() error {
	return nil
}

func (f *FileStore) update(mutate func(doc *document)) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}

	mutate(&doc)

	return f.write(doc)
}

func (f *FileStore) read() (document, error) {
	doc := document{Accounts: make(map[string]environment.URLData)}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("read state file: %w", err)
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decode state file %s: %w", f.path, err)
	}

	if doc.Accounts == nil {
		doc.Accounts = make(map[string]environment.URLData)
	}

	return doc, nil
}

// write replaces the file through a rename so readers never see a partial
// document.
func (f *FileStore) write(doc document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode state file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".state-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}
