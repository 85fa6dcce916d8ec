package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/charm/kv"
)

// KV is a small byte store backed by charm kv, or by a map when opened
// with the ":memory:" namespace.
type KV struct {
	*kv.KV

	mu   sync.Mutex
	mock map[string]string
}

var ErrNotFound = fmt.Errorf("key not found")

func New(namespace string) (*KV, error) {
	if namespace == ":memory:" {
		return &KV{
			mock: make(map[string]string),
		}, nil
	}
	db, err := kv.OpenWithDefaults(namespace)
	if err != nil {
		return nil, err
	}
	return &KV{
		KV: db,
	}, nil
}

func (db *KV) Get(key string) (string, error) {
	if db.KV == nil {
		db.mu.Lock()
		defer db.mu.Unlock()
		v, ok := db.mock[key]
		if !ok {
			return "", ErrNotFound
		}
		return v, nil
	}
	v, err := db.KV.Get([]byte(key))
	return string(v), err
}

func (db *KV) Set(key string, value string) error {
	if db.KV == nil {
		db.mu.Lock()
		defer db.mu.Unlock()
		db.mock[key] = value
		return nil
	}
	return db.KV.Set([]byte(key), []byte(value))
}

func (db *KV) Delete(key string) error {
	if db.KV == nil {
		db.mu.Lock()
		defer db.mu.Unlock()
		delete(db.mock, key)
		return nil
	}
	return db.KV.Delete([]byte(key))
}

// Keys lists every key in sorted order
func (db *KV) Keys() ([]string, error) {
	out := []string{}
	if db.KV == nil {
		db.mu.Lock()
		for k := range db.mock {
			out = append(out, k)
		}
		db.mu.Unlock()
		sort.Strings(out)
		return out, nil
	}
	keys, err := db.KV.Keys()
	for _, k := range keys {
		out = append(out, string(k))
	}
	sort.Strings(out)
	return out, err
}

func (db *KV) Close() error {
	if db.KV == nil {
		return nil
	}
	return db.KV.Close()
}
