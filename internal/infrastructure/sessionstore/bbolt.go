package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/avatarctic/contract-admin/internal/core/domain/session"
	"github.com/avatarctic/contract-admin/internal/core/ports"
)

const (
	// bucketName is the name of the bbolt bucket holding the session.
	bucketName = "session"
	// sessionKey is the single key the current session is stored under.
	sessionKey = "current_session"
)

// ErrStoreClosed is returned by operations on a closed store.
var ErrStoreClosed = errors.New("session store is closed")

// BboltStore keeps the signed-in user in an embedded bbolt file so that it
// survives restarts.
type BboltStore struct {
	db     *bbolt.DB
	mu     sync.RWMutex
	closed bool
}

var _ ports.SessionStore = (*BboltStore)(nil)

// Open opens (creating if needed) the session file at path.
func Open(path string) (*BboltStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session file %s: %w", path, err)
	}
	s, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New creates a BboltStore on an open database.
func New(db *bbolt.DB) (*BboltStore, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists([]byte(bucketName))
		return createErr
	})
	if err != nil {
		return nil, err
	}
	return &BboltStore{db: db}, nil
}

// Load returns the stored session, or ports.ErrNoSession.
func (s *BboltStore) Load(ctx context.Context) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sess session.Session
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return ports.ErrNoSession
		}
		data := b.Get([]byte(sessionKey))
		if data == nil {
			return ports.ErrNoSession
		}
		if err := json.Unmarshal(data, &sess); err != nil {
			return fmt.Errorf("decode stored session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Save replaces the stored session.
func (s *BboltStore) Save(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return errors.New("session is nil")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return err
		}
		return b.Put([]byte(sessionKey), data)
	})
}

// Clear removes the stored session. Clearing an empty store is not an error.
func (s *BboltStore) Clear(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(sessionKey))
	})
}

// Close closes the store and the underlying database.
func (s *BboltStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
