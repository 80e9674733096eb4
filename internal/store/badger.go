package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

var profilePrefix = []byte("profile:")

// BadgerProfiles is a persistent ProfileStore backed by BadgerDB v4 with
// msgpack-encoded records. Name listings are full prefix scans, which is
// fine at the scale of one organization's enrolled speakers.
type BadgerProfiles struct {
	db *badger.DB
}

// BadgerOptions configures the badger-backed profile store.
type BadgerOptions struct {
	// Dir is the directory for badger data files. Required unless InMemory.
	Dir string

	// InMemory runs badger without disk persistence. Used by tests to
	// exercise the real engine.
	InMemory bool
}

// BadgerPath returns the profile database directory below the data dir.
func BadgerPath(dataDir string) string {
	return filepath.Join(dataDir, "profiles")
}

// NewBadgerProfiles opens (or creates) the profile database.
func NewBadgerProfiles(opts BadgerOptions) (*BadgerProfiles, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("badger profile store requires a directory")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(nil)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger profile store: %w", err)
	}
	return &BadgerProfiles{db: db}, nil
}

func profileKey(id string) []byte {
	return append(append([]byte{}, profilePrefix...), id...)
}

func (b *BadgerProfiles) Put(_ context.Context, p Profile) error {
	val, err := msgpack.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", p.ID, err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(profileKey(p.ID), val)
	})
}

func (b *BadgerProfiles) Get(_ context.Context, id string) (Profile, error) {
	var p Profile
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(profileKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &p)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("get profile %s: %w", id, err)
	}
	return p, nil
}

// scan walks every stored profile and hands it to fn.
func (b *BadgerProfiles) scan(fn func(Profile)) error {
	return b.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = profilePrefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(profilePrefix); it.ValidForPrefix(profilePrefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var p Profile
				if err := msgpack.Unmarshal(val, &p); err != nil {
					return err
				}
				fn(p)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BadgerProfiles) ListByName(_ context.Context, personName string) ([]Profile, error) {
	name := strings.ToLower(strings.TrimSpace(personName))
	var out []Profile
	err := b.scan(func(p Profile) {
		if !p.IsCentroid && p.PersonName == name {
			out = append(out, p)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("list profiles for %q: %w", name, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *BadgerProfiles) ListNames(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	err := b.scan(func(p Profile) {
		if !p.IsCentroid {
			seen[p.PersonName] = true
		}
	})
	if err != nil {
		return nil, fmt.Errorf("list names: %w", err)
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (b *BadgerProfiles) Count(_ context.Context) (int, error) {
	n := 0
	if err := b.scan(func(Profile) { n++ }); err != nil {
		return 0, err
	}
	return n, nil
}

func (b *BadgerProfiles) Close() error {
	return b.db.Close()
}
