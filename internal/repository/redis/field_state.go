package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key patterns for live match data.
func fieldKey(matchID string) string      { return "match:" + matchID + ":field" }
func actsKey(matchID, side string) string { return "match:" + matchID + ":acts:" + side }

const activeKey = "matches:active"

// liveTTL bounds how long an abandoned match lingers in Redis.
const liveTTL = 24 * time.Hour

// SetField stores the live board of a match as TFEN.
func (c *Client) SetField(ctx context.Context, matchID, tfen string) error {
	return c.rdb.Set(ctx, fieldKey(matchID), tfen, liveTTL).Err()
}

// GetField returns the live board TFEN, or "" when none is cached.
func (c *Client) GetField(ctx context.Context, matchID string) (string, error) {
	s, err := c.rdb.Get(ctx, fieldKey(matchID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get field: %w", err)
	}
	return s, nil
}

// SetActs stores the acts a side played in the latest turn.
func (c *Client) SetActs(ctx context.Context, matchID, side string, acts json.RawMessage) error {
	return c.rdb.Set(ctx, actsKey(matchID, side), []byte(acts), liveTTL).Err()
}

// GetActs returns a side's latest acts, or nil when none are cached.
func (c *Client) GetActs(ctx context.Context, matchID, side string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, actsKey(matchID, side)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get acts: %w", err)
	}
	return json.RawMessage(data), nil
}

// MarkActive adds a match to the set of running matches.
func (c *Client) MarkActive(ctx context.Context, matchID string) error {
	return c.rdb.SAdd(ctx, activeKey, matchID).Err()
}

// ActiveMatches returns the ids of running matches.
func (c *Client) ActiveMatches(ctx context.Context) ([]string, error) {
	return c.rdb.SMembers(ctx, activeKey).Result()
}

// DeleteMatchData removes all live data for a match (on match end).
func (c *Client) DeleteMatchData(ctx context.Context, matchID string) error {
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, fieldKey(matchID), actsKey(matchID, "ally"), actsKey(matchID, "enemy"))
	pipe.SRem(ctx, activeKey, matchID)
	_, err := pipe.Exec(ctx)
	return err
}
