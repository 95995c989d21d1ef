//go:build native

package commit

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"

	bolt "go.etcd.io/bbolt"

	"github.com/cypher-asi/zero-os-sub001/internal/kernelerr"
)

var recordsBucket = []byte("commit_records")

// BoltSink persists the commit log -- never a kernel-state snapshot --
// to an embedded bbolt database, one key per sequence number (big-endian
// uint64, so bolt's own key ordering matches log order). This is the
// native-only durability story permitted alongside the decision not to
// persist kernel state itself: the log, unlike the tables it folds
// into, is external state.
type BoltSink struct {
	db *bolt.DB
}

// OpenBoltSink opens (creating if necessary) a bbolt-backed sink at path.
func OpenBoltSink(path string) (*BoltSink, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, kernelerr.Wrap(err, kernelerr.AllocationRefused, "commit: failed to open bolt sink at %s", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, kernelerr.Wrap(err, kernelerr.AllocationRefused, "commit: failed to initialize bolt sink")
	}

	return &BoltSink{db: db}, nil
}

func (s *BoltSink) Close() error {
	return s.db.Close()
}

func seqKey(seq uint64) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], seq)
	return key[:]
}

func (s *BoltSink) Append(r Record) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return kernelerr.Wrap(err, kernelerr.BadArgument, "commit: failed to encode record %d", r.Seq)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(recordsBucket)
		return b.Put(seqKey(r.Seq), buf.Bytes())
	})
}

func (s *BoltSink) Records() ([]Record, error) {
	var out []Record

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(recordsBucket)
		return b.ForEach(func(_, v []byte) error {
			var r Record
			if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&r); err != nil {
				return err
			}
			out = append(out, r)
			return nil
		})
	})
	if err != nil {
		return nil, kernelerr.Wrap(err, kernelerr.BadArgument, "commit: failed to read bolt sink")
	}

	return out, nil
}
