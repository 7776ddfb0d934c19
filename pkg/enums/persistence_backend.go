package enums

import "fmt"

// PersistenceBackend selects where cart snapshots are mirrored between requests.
type PersistenceBackend string

const (
	PersistenceBackendRedis  PersistenceBackend = "redis"
	PersistenceBackendDB     PersistenceBackend = "db"
	PersistenceBackendMemory PersistenceBackend = "memory"
)

var validPersistenceBackends = []PersistenceBackend{
	PersistenceBackendRedis,
	PersistenceBackendDB,
	PersistenceBackendMemory,
}

// String implements fmt.Stringer.
func (p PersistenceBackend) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PersistenceBackend.
func (p PersistenceBackend) IsValid() bool {
	for _, candidate := range validPersistenceBackends {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePersistenceBackend converts raw input into a PersistenceBackend.
func ParsePersistenceBackend(value string) (PersistenceBackend, error) {
	if parsed := PersistenceBackend(value); parsed.IsValid() {
		return parsed, nil
	}
	return "", fmt.Errorf("invalid persistence backend %q", value)
}
