package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const credentialBucket = "credentials"

// boltStore implements a CredentialStore backed by BoltDB.
type boltStore struct {
	db  *bolt.DB
	key []byte
}

// openBolt initializes a BoltDB-backed CredentialStore.
func openBolt(path string, opts Options) (CredentialStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(credentialBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{db: db, key: []byte(opts.Key)}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Token returns the persisted credential, or "" if none was stored yet.
func (b *boltStore) Token() (string, error) {
	if b == nil || b.db == nil {
		return "", nil
	}

	var token string
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(credentialBucket))
		if bucket == nil {
			return fmt.Errorf("credential bucket missing")
		}
		// value is only valid inside the transaction
		if v := bucket.Get(b.key); v != nil {
			token = string(v)
		}
		return nil
	})
	return token, err
}

// SetToken overwrites the persisted credential.
func (b *boltStore) SetToken(token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	if b == nil || b.db == nil {
		return nil
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(credentialBucket))
		if bucket == nil {
			return fmt.Errorf("credential bucket missing")
		}
		return bucket.Put(b.key, []byte(token))
	})
}
