// /internal/storage/storage.go
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/keshon/datastore"

	"proactive-friend/internal/mind"
)

const factsKeyPrefix = "facts:"

// Storage persists long-term user facts in the JSON datastore. It implements
// mind.FactStore; short-term memory never touches disk.
type Storage struct {
	ds *datastore.DataStore
}

func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// FactsFor returns all stored facts for a user, oldest first. A user with no
// record yields an empty slice, not an error.
func (s *Storage) FactsFor(userID string) ([]mind.Fact, error) {
	data, exists := s.ds.Get(factsKeyPrefix + userID)
	if !exists {
		return nil, nil
	}

	// The datastore hands back decoded JSON as generic values; round-trip
	// through json to get typed records, same as the rest of the records.
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("error marshalling facts: %w", err)
	}
	var facts []mind.Fact
	if err := json.Unmarshal(jsonData, &facts); err != nil {
		return nil, fmt.Errorf("error unmarshalling facts: %w", err)
	}
	return facts, nil
}

// SaveFacts replaces the stored fact list for a user. Callers hold the
// per-user lock, so the read-modify-write in the memory manager is safe.
func (s *Storage) SaveFacts(userID string, facts []mind.Fact) error {
	s.ds.Add(factsKeyPrefix+userID, facts)
	return nil
}
