package storage

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/walletvault/walletvault/internal/bytesutil"
)

// Bucket names
var (
	configBucket = []byte("config") // version, vault id, timestamps - unencrypted
	saltsBucket  = []byte("salts")  // per-purpose KDF salts - unencrypted
	blobsBucket  = []byte("blobs")  // encrypted envelope records
)

// Config keys
var (
	configVersion  = []byte("version")
	configCreated  = []byte("created")
	configModified = []byte("modified")
	configVaultID  = []byte("vault_id")
)

var (
	ErrNotInitialized = errors.New("store not initialized")
	ErrSaltNotFound   = errors.New("salt not found")
	ErrBlobNotFound   = errors.New("blob not found")
)

// Store provides BBolt-based durable storage for salts and encrypted blobs.
type Store struct {
	db *bolt.DB
}

// Open opens or creates a walletvault database.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Initialize creates the bucket structure for a new vault.
func (s *Store) Initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{configBucket, saltsBucket, blobsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(configBucket)
		if err := config.Put(configVersion, []byte("1")); err != nil {
			return err
		}

		now, _ := time.Now().MarshalBinary()
		if err := config.Put(configCreated, now); err != nil {
			return err
		}
		return config.Put(configModified, now)
	})
}

// IsInitialized checks if the database has been initialized.
func (s *Store) IsInitialized() (bool, error) {
	var initialized bool
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(configBucket)
		if config != nil && config.Get(configVersion) != nil {
			initialized = true
		}
		return nil
	})
	return initialized, err
}

// Salt retrieves the KDF salt for a derivation purpose.
func (s *Store) Salt(purpose string) ([]byte, error) {
	var salt []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		salts := tx.Bucket(saltsBucket)
		if salts == nil {
			return ErrNotInitialized
		}
		v := salts.Get([]byte(purpose))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrSaltNotFound, purpose)
		}
		// Copy: the slice is only valid during the transaction.
		salt = append([]byte(nil), v...)
		return nil
	})
	return salt, err
}

// SetSalt stores the KDF salt for a derivation purpose.
func (s *Store) SetSalt(purpose string, salt []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		salts := tx.Bucket(saltsBucket)
		if salts == nil {
			return ErrNotInitialized
		}
		if err := salts.Put([]byte(purpose), salt); err != nil {
			return err
		}
		return s.touch(tx)
	})
}

// GetOrCreateSalt returns the existing salt for a purpose, creating a
// random one of n bytes on first use. The write is followed by a fresh
// read, so concurrent creators all end up using whichever value the store
// settled on rather than their own candidate.
func (s *Store) GetOrCreateSalt(purpose string, n int) ([]byte, error) {
	if salt, err := s.Salt(purpose); err == nil {
		return salt, nil
	} else if !errors.Is(err, ErrSaltNotFound) {
		return nil, err
	}

	candidate, err := bytesutil.RandomBytes(n)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	// Write only if still absent. Update transactions are serialized, so
	// exactly one candidate wins.
	err = s.db.Update(func(tx *bolt.Tx) error {
		salts := tx.Bucket(saltsBucket)
		if salts == nil {
			return ErrNotInitialized
		}
		if salts.Get([]byte(purpose)) != nil {
			return nil
		}
		if err := salts.Put([]byte(purpose), candidate); err != nil {
			return err
		}
		return s.touch(tx)
	})
	if err != nil {
		return nil, err
	}

	// Read-after-write: return what the store actually holds.
	return s.Salt(purpose)
}

// PutBlob stores an encrypted envelope record under a name.
func (s *Store) PutBlob(name string, data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		blobs := tx.Bucket(blobsBucket)
		if blobs == nil {
			return ErrNotInitialized
		}
		if err := blobs.Put([]byte(name), data); err != nil {
			return err
		}
		return s.touch(tx)
	})
}

// Blob retrieves an encrypted envelope record.
func (s *Store) Blob(name string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		blobs := tx.Bucket(blobsBucket)
		if blobs == nil {
			return ErrNotInitialized
		}
		v := blobs.Get([]byte(name))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrBlobNotFound, name)
		}
		data = append([]byte(nil), v...)
		return nil
	})
	return data, err
}

// DeleteBlob removes an encrypted record.
func (s *Store) DeleteBlob(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		blobs := tx.Bucket(blobsBucket)
		if blobs == nil {
			return ErrNotInitialized
		}
		return blobs.Delete([]byte(name))
	})
}

// BlobNames returns the names of all stored records.
func (s *Store) BlobNames() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		blobs := tx.Bucket(blobsBucket)
		if blobs == nil {
			return nil
		}
		return blobs.ForEach(func(k, v []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// VaultID retrieves existing vault ID or generates a new one. The ID keys
// the OS-keyring session entry so two vaults never share a cached key.
func (s *Store) VaultID() (string, error) {
	var id string
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(configBucket)
		if config == nil {
			return ErrNotInitialized
		}
		if v := config.Get(configVaultID); v != nil {
			id = string(v)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	b, err := bytesutil.RandomBytes(16)
	if err != nil {
		return "", fmt.Errorf("failed to generate vault ID: %w", err)
	}
	id = hex.EncodeToString(b)

	err = s.db.Update(func(tx *bolt.Tx) error {
		config := tx.Bucket(configBucket)
		if config == nil {
			return ErrNotInitialized
		}
		if v := config.Get(configVaultID); v != nil {
			id = string(v)
			return nil
		}
		return config.Put(configVaultID, []byte(id))
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Modified retrieves the last modified timestamp.
func (s *Store) Modified() (time.Time, error) {
	var modified time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(configBucket)
		if config == nil {
			return ErrNotInitialized
		}
		data := config.Get(configModified)
		if data == nil {
			return fmt.Errorf("modified time not found")
		}
		return modified.UnmarshalBinary(data)
	})
	return modified, err
}

func (s *Store) touch(tx *bolt.Tx) error {
	config := tx.Bucket(configBucket)
	if config == nil {
		return nil
	}
	now, _ := time.Now().MarshalBinary()
	return config.Put(configModified, now)
}
