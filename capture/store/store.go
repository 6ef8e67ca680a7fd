// Package store keeps capture records in a bbolt database and exports them
// as pcap files.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/sarchlab/hyperfifo/capture"
)

var (
	recordsBucket = []byte("records")
	metaBucket    = []byte("meta")
)

// ErrNotFound is returned when a record or meta key does not exist.
var ErrNotFound = errors.New("not found")

// Store is a capture database. Records are numbered from 1 in the order they
// were added.
type Store struct {
	DB *bbolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open capture db %s: %w", path, err)
	}

	if err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{recordsBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{DB: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

func seqKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

// Put appends records in one transaction and returns the sequence number of
// the first one.
func (s *Store) Put(records ...capture.Record) (uint64, error) {
	var first uint64

	err := s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(recordsBucket)

		for i, r := range records {
			data, err := capture.Bytes([]capture.Record{r})
			if err != nil {
				return err
			}

			seq, err := b.NextSequence()
			if err != nil {
				return err
			}

			if i == 0 {
				first = seq
			}

			if err := b.Put(seqKey(seq), data); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return first, nil
}

func decodeOne(data []byte) (capture.Record, error) {
	records, err := capture.Decode(data)
	if err != nil {
		return capture.Record{}, err
	}

	if len(records) != 1 {
		return capture.Record{}, fmt.Errorf("stored value holds %d records",
			len(records))
	}

	return records[0], nil
}

// Get returns the record with the given sequence number.
func (s *Store) Get(seq uint64) (capture.Record, error) {
	var r capture.Record

	err := s.DB.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(recordsBucket).Get(seqKey(seq))
		if data == nil {
			return fmt.Errorf("record %d: %w", seq, ErrNotFound)
		}

		var err error
		r, err = decodeOne(data)

		return err
	})

	return r, err
}

// ForEach calls fn for every record in sequence order. Iteration stops at the
// first error.
func (s *Store) ForEach(fn func(seq uint64, r capture.Record) error) error {
	return s.DB.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(recordsBucket).ForEach(func(k, v []byte) error {
			r, err := decodeOne(v)
			if err != nil {
				return err
			}

			return fn(binary.BigEndian.Uint64(k), r)
		})
	})
}

// List returns up to limit records starting at sequence number from. A limit
// of zero returns all of them.
func (s *Store) List(from uint64, limit int) ([]uint64, []capture.Record, error) {
	var seqs []uint64
	var records []capture.Record

	err := s.DB.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(recordsBucket).Cursor()
		for k, v := c.Seek(seqKey(from)); k != nil; k, v = c.Next() {
			if limit > 0 && len(records) == limit {
				break
			}

			r, err := decodeOne(v)
			if err != nil {
				return err
			}

			seqs = append(seqs, binary.BigEndian.Uint64(k))
			records = append(records, r)
		}

		return nil
	})

	return seqs, records, err
}

// Count returns the number of stored records.
func (s *Store) Count() (int, error) {
	var n int

	err := s.DB.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(recordsBucket).Stats().KeyN
		return nil
	})

	return n, err
}

// SetMeta stores a run attribute such as the run id.
func (s *Store) SetMeta(key, value string) error {
	return s.DB.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(metaBucket).Put([]byte(key), []byte(value))
	})
}

// Meta returns a run attribute.
func (s *Store) Meta(key string) (string, error) {
	var value string

	err := s.DB.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(metaBucket).Get([]byte(key))
		if v == nil {
			return fmt.Errorf("meta %s: %w", key, ErrNotFound)
		}

		value = string(v)

		return nil
	})

	return value, err
}

// AllMeta returns every run attribute.
func (s *Store) AllMeta() (map[string]string, error) {
	meta := map[string]string{}

	err := s.DB.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(metaBucket).ForEach(func(k, v []byte) error {
			meta[string(k)] = string(v)
			return nil
		})
	})

	return meta, err
}
