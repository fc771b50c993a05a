package persist

import (
	"fmt"
	"io"
	"strings"
)

// Open returns the KV selected by driver ("memory" or "sqlite") together with
// a closer for it.
func Open(driver, path string) (KV, io.Closer, error) {
	switch strings.ToLower(driver) {
	case "", "memory":
		return NewMemory(), nopCloser{}, nil
	case "sqlite":
		db, err := OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver: %s", driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
