package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	mlerrors "github.com/meetlens/meetlens/pkg/errors"
)

const redisKeyPrefix = "meetlens:upload:"

// RedisStore keeps session metadata in Redis so it survives process
// restarts. Chunk payloads still live on local disk, so uploads remain
// pinned to one instance; this store only widens session visibility.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(id string) string { return redisKeyPrefix + id }
func chunksKey(id string) string  { return redisKeyPrefix + id + ":chunks" }

func (r *RedisStore) Put(ctx context.Context, session *Session) error {
	body, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", session.ID, err)
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), body, r.ttl)
	pipe.SAdd(ctx, redisKeyPrefix+"index", session.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storing session %s: %w", session.ID, err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	body, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, mlerrors.NewUnknownSession(id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}

	members, err := r.client.SMembers(ctx, chunksKey(id)).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("loading chunk set for session %s: %w", id, err)
	}
	session.Received = make(map[int]bool, len(members))
	for _, m := range members {
		if idx, convErr := strconv.Atoi(m); convErr == nil {
			session.Received[idx] = true
		}
	}
	return &session, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKey(id), chunksKey(id))
	pipe.SRem(ctx, redisKeyPrefix+"index", id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}

func (r *RedisStore) List(ctx context.Context) ([]*Session, error) {
	ids, err := r.client.SMembers(ctx, redisKeyPrefix+"index").Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	var out []*Session
	for _, id := range ids {
		session, err := r.Get(ctx, id)
		if err != nil {
			// Expired body with a stale index entry; drop it.
			var se *mlerrors.SessionError
			if errors.As(err, &se) {
				r.client.SRem(ctx, redisKeyPrefix+"index", id)
				continue
			}
			return nil, err
		}
		out = append(out, session)
	}
	return out, nil
}

func (r *RedisStore) MarkChunk(ctx context.Context, id string, index int) (int, error) {
	exists, err := r.client.Exists(ctx, sessionKey(id)).Result()
	if err != nil {
		return 0, fmt.Errorf("checking session %s: %w", id, err)
	}
	if exists == 0 {
		return 0, mlerrors.NewUnknownSession(id)
	}

	pipe := r.client.TxPipeline()
	pipe.SAdd(ctx, chunksKey(id), index)
	pipe.Expire(ctx, chunksKey(id), r.ttl)
	card := pipe.SCard(ctx, chunksKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("marking chunk %d for session %s: %w", index, id, err)
	}
	return int(card.Val()), nil
}
