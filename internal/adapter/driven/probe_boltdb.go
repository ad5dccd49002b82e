package driven

import (
	"context"
	"encoding/binary"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"go.etcd.io/bbolt"

	"github.com/alorle/iptv-selector/internal/probe"
)

const probesBucket = "probes"

var errProbesBucketMissing = errors.New("probes bucket not found")

// ProbeBoltDBRepository implements the ProbeRepository port using BoltDB.
// It uses nested buckets: probes/<source> with timestamp-keyed entries.
type ProbeBoltDBRepository struct {
	db *bbolt.DB
}

// NewProbeBoltDBRepository creates a new BoltDB-backed probe repository.
// It initializes the required top-level bucket if it doesn't exist.
func NewProbeBoltDBRepository(db *bbolt.DB) (*ProbeBoltDBRepository, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}

	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(probesBucket))
		return err
	})
	if err != nil {
		return nil, err
	}

	return &ProbeBoltDBRepository{db: db}, nil
}

// recordDTO is the JSON serialization format for a probe record.
type recordDTO struct {
	Source     string  `json:"source"`
	RunID      string  `json:"run_id,omitempty"`
	Mode       string  `json:"mode"`
	Timestamp  int64   `json:"timestamp"`
	Success    bool    `json:"success"`
	Throughput float64 `json:"throughput"`
	Recognized bool    `json:"recognized"`
	Bytes      int64   `json:"bytes"`
	Elapsed    int64   `json:"elapsed"`
	Reason     string  `json:"reason,omitempty"`
}

// Save persists a probe record to BoltDB.
func (r *ProbeBoltDBRepository) Save(ctx context.Context, rec probe.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		top := tx.Bucket([]byte(probesBucket))
		if top == nil {
			return errProbesBucketMissing
		}

		sub, err := top.CreateBucketIfNotExists([]byte(rec.Source()))
		if err != nil {
			return err
		}

		res := rec.Result()
		dto := recordDTO{
			Source:     rec.Source(),
			RunID:      rec.RunID(),
			Mode:       rec.Mode(),
			Timestamp:  rec.Timestamp().UnixNano(),
			Success:    res.Success(),
			Throughput: res.Throughput(),
			Recognized: res.Recognized(),
			Bytes:      res.Bytes(),
			Elapsed:    res.Elapsed().Nanoseconds(),
			Reason:     res.Reason(),
		}

		data, err := json.Marshal(dto)
		if err != nil {
			return err
		}

		return sub.Put(timestampToKey(rec.Timestamp()), data)
	})
}

// FindBySource retrieves all records for a source, most recent first.
func (r *ProbeBoltDBRepository) FindBySource(ctx context.Context, source string) ([]probe.Record, error) {
	return r.FindBySourceSince(ctx, source, time.Time{})
}

// FindBySourceSince retrieves records for a source since the given time,
// most recent first. A zero since returns every record.
func (r *ProbeBoltDBRepository) FindBySourceSince(ctx context.Context, source string, since time.Time) ([]probe.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := []probe.Record{}

	err := r.db.View(func(tx *bbolt.Tx) error {
		top := tx.Bucket([]byte(probesBucket))
		if top == nil {
			return errProbesBucketMissing
		}

		sub := top.Bucket([]byte(source))
		if sub == nil {
			return nil
		}

		var sinceKey []byte
		if !since.IsZero() {
			sinceKey = timestampToKey(since)
		}

		c := sub.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if sinceKey != nil && compareKeys(k, sinceKey) < 0 {
				break
			}

			rec, err := dtoToRecord(v)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Sources lists the sources that have stored records, in key order.
func (r *ProbeBoltDBRepository) Sources(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sources := []string{}

	err := r.db.View(func(tx *bbolt.Tx) error {
		top := tx.Bucket([]byte(probesBucket))
		if top == nil {
			return errProbesBucketMissing
		}

		return top.ForEach(func(k, v []byte) error {
			// v is nil for nested buckets
			if v == nil {
				sources = append(sources, string(k))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return sources, nil
}

// DeleteBefore removes all records older than the given time.
func (r *ProbeBoltDBRepository) DeleteBefore(ctx context.Context, before time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		top := tx.Bucket([]byte(probesBucket))
		if top == nil {
			return errProbesBucketMissing
		}

		beforeKey := timestampToKey(before)

		return top.ForEach(func(k, v []byte) error {
			if v != nil {
				return nil
			}

			sub := top.Bucket(k)
			if sub == nil {
				return nil
			}

			// Collect keys to delete (can't delete during iteration)
			var keysToDelete [][]byte
			c := sub.Cursor()
			for ck, _ := c.First(); ck != nil && compareKeys(ck, beforeKey) < 0; ck, _ = c.Next() {
				keysToDelete = append(keysToDelete, append([]byte(nil), ck...))
			}

			for _, dk := range keysToDelete {
				if err := sub.Delete(dk); err != nil {
					return err
				}
			}

			return nil
		})
	})
}

// timestampToKey converts a time.Time to an 8-byte big-endian key.
// This ensures chronological ordering in BoltDB's byte-sorted keys.
func timestampToKey(t time.Time) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(t.UnixNano()))
	return key
}

// compareKeys compares two 8-byte big-endian keys.
func compareKeys(a, b []byte) int {
	va := binary.BigEndian.Uint64(a)
	vb := binary.BigEndian.Uint64(b)
	switch {
	case va < vb:
		return -1
	case va > vb:
		return 1
	default:
		return 0
	}
}

func dtoToRecord(data []byte) (probe.Record, error) {
	var dto recordDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return probe.Record{}, err
	}

	result := probe.ReconstructResult(
		dto.Success,
		dto.Throughput,
		dto.Recognized,
		dto.Bytes,
		time.Duration(dto.Elapsed),
		dto.Reason,
	)

	return probe.ReconstructRecord(dto.Source, dto.RunID, dto.Mode, time.Unix(0, dto.Timestamp), result), nil
}
