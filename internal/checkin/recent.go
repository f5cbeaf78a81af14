package checkin

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

const (
	recentKey  = "traineehub:checkins:recent"
	recentSize = 5
)

// RecentList keeps the most recent check-ins in a bounded Redis list so the
// scanner screen can show them without hitting Postgres.
type RecentList struct {
	client *redis.Client
}

// NewRecentList creates the view over a redis client.
func NewRecentList(client *redis.Client) *RecentList {
	return &RecentList{client: client}
}

// Push prepends an entry and trims the list to its bound.
func (v *RecentList) Push(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	pipe := v.client.TxPipeline()
	pipe.LPush(ctx, recentKey, data)
	pipe.LTrim(ctx, recentKey, 0, recentSize-1)
	_, err = pipe.Exec(ctx)
	return err
}

// List returns entries most-recent-first.
func (v *RecentList) List(ctx context.Context) ([]Entry, error) {
	raw, err := v.client.LRange(ctx, recentKey, 0, recentSize-1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
