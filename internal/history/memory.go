package history

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const memoryCapacity = 512

// MemoryStore keeps recent records in memory and appends every record to a
// JSON lines file so that a restart restores them.
type MemoryStore struct {
	mu       sync.RWMutex
	dataFile string
	records  []Record
	nextID   int64
}

// NewMemoryStore opens or creates dataDir/history.log.
func NewMemoryStore(dataDir string) (*MemoryStore, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	store := &MemoryStore{dataFile: filepath.Join(dataDir, "history.log")}
	if err := store.loadFromDisk(); err != nil {
		return nil, err
	}
	return store, nil
}

// Save assigns an id and appends the record.
func (m *MemoryStore) Save(_ context.Context, record *Record) error {
	if record == nil {
		return fmt.Errorf("history record is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	record.ID = m.nextID
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode history record: %w", err)
	}

	file, err := os.OpenFile(m.dataFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open history log: %w", err)
	}
	defer file.Close()
	if _, err := file.Write(append(encoded, '\n')); err != nil {
		return fmt.Errorf("write history log: %w", err)
	}

	m.records = append([]Record{*record}, m.records...)
	if len(m.records) > memoryCapacity {
		m.records = m.records[:memoryCapacity]
	}
	return nil
}

// ListLatest returns up to limit records, newest first. A non-positive limit
// returns everything kept in memory.
func (m *MemoryStore) ListLatest(_ context.Context, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.records) {
		limit = len(m.records)
	}
	out := make([]Record, limit)
	copy(out, m.records[:limit])
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) loadFromDisk() error {
	file, err := os.OpenFile(m.dataFile, os.O_RDONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("read history log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var restored []Record
	for scanner.Scan() {
		var record Record
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			continue
		}
		if record.ID > m.nextID {
			m.nextID = record.ID
		}
		restored = append([]Record{record}, restored...)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("parse history log: %w", err)
	}
	if len(restored) > memoryCapacity {
		restored = restored[:memoryCapacity]
	}
	m.records = restored
	return nil
}

var _ Store = (*MemoryStore)(nil)
