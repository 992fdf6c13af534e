package store

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
)

// LevelDB is a disk-backed KV implementation, offered as an alternative
// to Inmem for deployments that want the ledger's recent-rounds
// snapshot (SaveSnapshot/LoadSnapshot) to survive a process restart. The consensus
// engine itself never relies on this for correctness.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens (creating if necessary) a LevelDB database at path.
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "store: failed to open leveldb at %s", path)
	}

	return &LevelDB{db: db}, nil
}

func (s *LevelDB) Get(key []byte) ([]byte, error) {
	val, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "store: leveldb get failed")
	}

	return val, nil
}

func (s *LevelDB) Put(key, value []byte) error {
	if err := s.db.Put(key, value, nil); err != nil {
		return errors.Wrap(err, "store: leveldb put failed")
	}

	return nil
}

func (s *LevelDB) Delete(key []byte) error {
	if err := s.db.Delete(key, nil); err != nil {
		return errors.Wrap(err, "store: leveldb delete failed")
	}

	return nil
}

func (s *LevelDB) Has(key []byte) (bool, error) {
	ok, err := s.db.Has(key, nil)
	if err != nil {
		return false, errors.Wrap(err, "store: leveldb has failed")
	}

	return ok, nil
}

// Close releases the underlying database handle.
func (s *LevelDB) Close() error {
	return s.db.Close()
}
