package goals

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const maxCASAttempts = 5

var (
	errKeyMissing       = errors.New("key missing")
	errRevisionConflict = errors.New("revision conflict")
)

// revisionedKV is the slice of a key-value bucket the clock needs.
type revisionedKV interface {
	get(ctx context.Context, key string) ([]byte, uint64, error)
	create(ctx context.Context, key string, value []byte) error
	update(ctx context.Context, key string, value []byte, revision uint64) error
}

// NATSClock shares last-write times between processes through a JetStream
// key-value bucket, using revision checks for the atomic read-check-record.
type NATSClock struct {
	kv revisionedKV
}

// NewNATSClock opens (or creates) the bucket. The bucket TTL is the cooldown
// so stale users age out on the server.
func NewNATSClock(ctx context.Context, js jetstream.JetStream, bucket string, cooldown time.Duration) (*NATSClock, error) {
	ttl := cooldown
	if ttl < time.Second {
		ttl = time.Second
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Last passive income goal write per user",
		TTL:         ttl,
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("create key-value bucket %s: %w", bucket, err)
	}
	return &NATSClock{kv: jetstreamKV{kv: kv}}, nil
}

// Update retries on revision conflicts so the decision is always made
// against the latest stored time.
func (n *NATSClock) Update(ctx context.Context, userID string, fn func(last time.Time, ok bool) (time.Time, bool)) error {
	key := clockKey(userID)

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		var (
			last     time.Time
			found    bool
			revision uint64
		)
		value, rev, err := n.kv.get(ctx, key)
		switch {
		case errors.Is(err, errKeyMissing):
		case err != nil:
			return fmt.Errorf("read last write: %w", err)
		default:
			if err := last.UnmarshalText(value); err != nil {
				return fmt.Errorf("decode last write: %w", err)
			}
			found, revision = true, rev
		}

		next, record := fn(last, found)
		if !record {
			return nil
		}
		data, err := next.UTC().MarshalText()
		if err != nil {
			return fmt.Errorf("encode last write: %w", err)
		}

		if found {
			err = n.kv.update(ctx, key, data, revision)
		} else {
			err = n.kv.create(ctx, key, data)
		}
		if err == nil {
			return nil
		}
		if !errors.Is(err, errRevisionConflict) {
			return fmt.Errorf("record last write: %w", err)
		}
	}
	return fmt.Errorf("record last write for %s: %w after %d attempts", userID, errRevisionConflict, maxCASAttempts)
}

// clockKey maps a user ID onto the key alphabet NATS accepts.
func clockKey(userID string) string {
	return "user." + base64.RawURLEncoding.EncodeToString([]byte(userID))
}

type jetstreamKV struct {
	kv jetstream.KeyValue
}

func (j jetstreamKV) get(ctx context.Context, key string) ([]byte, uint64, error) {
	entry, err := j.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
			return nil, 0, errKeyMissing
		}
		return nil, 0, err
	}
	return entry.Value(), entry.Revision(), nil
}

func (j jetstreamKV) create(ctx context.Context, key string, value []byte) error {
	_, err := j.kv.Create(ctx, key, value)
	return asConflict(err)
}

func (j jetstreamKV) update(ctx context.Context, key string, value []byte, revision uint64) error {
	_, err := j.kv.Update(ctx, key, value, revision)
	return asConflict(err)
}

func asConflict(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, jetstream.ErrKeyExists) {
		return errRevisionConflict
	}
	var apiErr *jetstream.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence {
		return errRevisionConflict
	}
	return err
}
