package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	ioutils "github.com/handiism/dstask/internal/io"
	"github.com/handiism/dstask/internal/model"
)

// Store is the persisted session cache.
//
// Load returns (nil, nil) when no record exists for hostKey.
type Store interface {
	Load(hostKey string) (*model.SessionRecord, error)
	Save(hostKey string, rec model.SessionRecord) error
	Delete(hostKey string) error
	Clear() error
}

// persistedRecord is the on-disk form of a SessionRecord.
// It deliberately has no secret or one-time code field.
type persistedRecord struct {
	SessionToken       string    `json:"session_token,omitempty"`
	Account            string    `json:"account,omitempty"`
	DefaultDestination string    `json:"default_destination,omitempty"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type persistedFile struct {
	Hosts map[string]persistedRecord `json:"hosts"`
}

// FileStore persists records to a single JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewFileStore creates a FileStore backed by path. The file and its
// directory are created lazily on the first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load returns the record for hostKey.
func (s *FileStore) Load(hostKey string) (*model.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hosts, err := s.read()
	if err != nil {
		return nil, err
	}
	p, ok := hosts[NormalizeHost(hostKey)]
	if !ok {
		return nil, nil
	}
	rec := fromPersisted(NormalizeHost(hostKey), p)
	return &rec, nil
}

// Save replaces the record for hostKey and rewrites the file.
func (s *FileStore) Save(hostKey string, rec model.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hosts, err := s.read()
	if err != nil {
		return err
	}
	hosts[NormalizeHost(hostKey)] = persistedRecord{
		SessionToken:       rec.SessionToken,
		Account:            rec.Account,
		DefaultDestination: rec.DefaultDestination,
		UpdatedAt:          s.now().UTC(),
	}
	return s.write(hosts)
}

// Delete removes the record for hostKey. Deleting a missing record is a no-op.
func (s *FileStore) Delete(hostKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hosts, err := s.read()
	if err != nil {
		return err
	}
	key := NormalizeHost(hostKey)
	if _, ok := hosts[key]; !ok {
		return nil
	}
	delete(hosts, key)
	return s.write(hosts)
}

// Clear removes every record.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(map[string]persistedRecord{})
}

func (s *FileStore) read() (map[string]persistedRecord, error) {
	data, err := ioutils.ReadFileIfExists(s.path)
	if err != nil {
		return nil, fmt.Errorf("read session cache: %w", err)
	}
	hosts := make(map[string]persistedRecord)
	if len(data) == 0 {
		return hosts, nil
	}
	var f persistedFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse session cache %s: %w", s.path, err)
	}
	for k, v := range f.Hosts {
		hosts[NormalizeHost(k)] = v
	}
	return hosts, nil
}

func (s *FileStore) write(hosts map[string]persistedRecord) error {
	data, err := json.MarshalIndent(persistedFile{Hosts: hosts}, "", "  ")
	if err != nil {
		return err
	}
	if err := ioutils.WriteFileAtomic(s.path, data, ioutils.PrivateFileMode); err != nil {
		return fmt.Errorf("write session cache: %w", err)
	}
	return nil
}

// MemoryStore keeps records in process memory only.
type MemoryStore struct {
	mu    sync.Mutex
	hosts map[string]model.SessionRecord
	now   func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{hosts: make(map[string]model.SessionRecord), now: time.Now}
}

func (s *MemoryStore) Load(hostKey string) (*model.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.hosts[NormalizeHost(hostKey)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemoryStore) Save(hostKey string, rec model.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := NormalizeHost(hostKey)
	rec.HostKey = key
	rec.UpdatedAt = s.now().UTC()
	s.hosts[key] = rec
	return nil
}

func (s *MemoryStore) Delete(hostKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hosts, NormalizeHost(hostKey))
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hosts = make(map[string]model.SessionRecord)
	return nil
}

// Open returns a FileStore at path when persist is true, otherwise a
// MemoryStore.
func Open(path string, persist bool) Store {
	if !persist || path == "" {
		return NewMemoryStore()
	}
	return NewFileStore(path)
}

func fromPersisted(key string, p persistedRecord) model.SessionRecord {
	return model.SessionRecord{
		HostKey:            key,
		SessionToken:       p.SessionToken,
		Account:            p.Account,
		DefaultDestination: p.DefaultDestination,
		UpdatedAt:          p.UpdatedAt,
	}
}
