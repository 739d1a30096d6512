package locationstore

import (
	"context"
	"fmt"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/aqi-predictor/internal/domain/airquality"
)

// ValkeyStore keeps location counters in a Valkey sorted set.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "aqi"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) Increment(ctx context.Context, locationID, display string) error {
	if locationID == "" {
		return nil
	}
	if err := s.client.Do(ctx, s.client.B().Zincrby().Key(s.countsKey()).Increment(1).Member(locationID).Build()).Error(); err != nil {
		return err
	}
	if display != "" {
		_ = s.client.Do(ctx, s.client.B().Set().Key(s.displayKey(locationID)).Value(display).Nx().Build()).Error()
	}
	return nil
}

func (s *ValkeyStore) Top(ctx context.Context, limit int) ([]airquality.LocationCount, error) {
	if limit <= 0 {
		limit = 10
	}
	resp := s.client.Do(ctx, s.client.B().Zrevrange().Key(s.countsKey()).Start(0).Stop(int64(limit-1)).Withscores().Build())
	arr, err := resp.ToArray()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]airquality.LocationCount, 0, len(arr))
	for i := 0; i < len(arr); {
		var (
			member string
			score  float64
		)
		if tuple, tupleErr := arr[i].ToArray(); tupleErr == nil && len(tuple) == 2 {
			// RESP3 returns [member, score] per element
			if member, err = tuple[0].ToString(); err != nil {
				return nil, err
			}
			if score, err = tuple[1].ToFloat64(); err != nil {
				return nil, err
			}
			i++
		} else {
			// RESP2 returns a flat alternating array.
			if i+1 >= len(arr) {
				break
			}
			if member, err = arr[i].ToString(); err != nil {
				return nil, err
			}
			if score, err = arr[i+1].ToFloat64(); err != nil {
				return nil, err
			}
			i += 2
		}
		out = append(out, airquality.LocationCount{Location: s.fetchDisplay(ctx, member), Count: int64(score)})
	}
	return out, nil
}

func (s *ValkeyStore) fetchDisplay(ctx context.Context, locationID string) string {
	display, err := s.client.Do(ctx, s.client.B().Get().Key(s.displayKey(locationID)).Build()).ToString()
	if err != nil || display == "" {
		return locationID
	}
	return display
}

func (s *ValkeyStore) countsKey() string {
	return fmt.Sprintf("%s:locations", s.prefix)
}

func (s *ValkeyStore) displayKey(locationID string) string {
	return fmt.Sprintf("%s:location:%s", s.prefix, locationID)
}

var _ airquality.LocationStats = (*ValkeyStore)(nil)
