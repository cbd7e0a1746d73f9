package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/skobyn/media-core/internal/models"
	"github.com/skobyn/media-core/internal/streaming"
)

const (
	sessionKeyPrefix  = "streaming:session:"
	downloadKeyPrefix = "download:"
	scanBatchSize     = 100
)

// Streaming redis repository
type streamingRedisRepo struct {
	redisClient *redis.Client
}

// Streaming redis repository constructor
func NewStreamingRedisRepo(redisClient *redis.Client) streaming.Repository {
	return &streamingRedisRepo{redisClient: redisClient}
}

func (r *streamingRedisRepo) SaveSession(ctx context.Context, session *models.StreamingSession, ttl time.Duration) error {
	sessionBytes, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "streamingRedisRepo.SaveSession.Marshal")
	}
	if err := r.redisClient.Set(ctx, sessionKeyPrefix+session.ID, sessionBytes, ttl).Err(); err != nil {
		return errors.Wrap(err, "streamingRedisRepo.SaveSession.Set")
	}
	return nil
}

func (r *streamingRedisRepo) GetSession(ctx context.Context, sessionID string) (*models.StreamingSession, error) {
	sessionBytes, err := r.redisClient.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, streaming.ErrSessionNotFound
		}
		return nil, errors.Wrap(err, "streamingRedisRepo.GetSession.Get")
	}
	session := &models.StreamingSession{}
	if err := json.Unmarshal(sessionBytes, session); err != nil {
		return nil, errors.Wrap(err, "streamingRedisRepo.GetSession.Unmarshal")
	}
	return session, nil
}

func (r *streamingRedisRepo) DeleteSession(ctx context.Context, sessionID string) error {
	if err := r.redisClient.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return errors.Wrap(err, "streamingRedisRepo.DeleteSession.Del")
	}
	return nil
}

// SweepIdleSessions backstops the per-key TTL for records written before a
// TTL was configured.
func (r *streamingRedisRepo) SweepIdleSessions(ctx context.Context, idleBefore time.Time) (int, error) {
	var cursor uint64
	removed := 0
	for {
		keys, next, err := r.redisClient.Scan(ctx, cursor, sessionKeyPrefix+"*", scanBatchSize).Result()
		if err != nil {
			return removed, errors.Wrap(err, "streamingRedisRepo.SweepIdleSessions.Scan")
		}
		for _, key := range keys {
			sessionBytes, err := r.redisClient.Get(ctx, key).Bytes()
			if err != nil {
				continue
			}
			session := &models.StreamingSession{}
			if err := json.Unmarshal(sessionBytes, session); err != nil {
				continue
			}
			if session.LastActive.Before(idleBefore) {
				if err := r.redisClient.Del(ctx, key).Err(); err == nil {
					removed++
				}
			}
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

func (r *streamingRedisRepo) SaveDownload(ctx context.Context, download *models.OfflineDownload, ttl time.Duration) error {
	downloadBytes, err := json.Marshal(download)
	if err != nil {
		return errors.Wrap(err, "streamingRedisRepo.SaveDownload.Marshal")
	}
	if err := r.redisClient.Set(ctx, downloadKeyPrefix+download.ID, downloadBytes, ttl).Err(); err != nil {
		return errors.Wrap(err, "streamingRedisRepo.SaveDownload.Set")
	}
	return nil
}

func (r *streamingRedisRepo) GetDownload(ctx context.Context, downloadID string) (*models.OfflineDownload, error) {
	downloadBytes, err := r.redisClient.Get(ctx, downloadKeyPrefix+downloadID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, streaming.ErrDownloadNotFound
		}
		return nil, errors.Wrap(err, "streamingRedisRepo.GetDownload.Get")
	}
	download := &models.OfflineDownload{}
	if err := json.Unmarshal(downloadBytes, download); err != nil {
		return nil, errors.Wrap(err, "streamingRedisRepo.GetDownload.Unmarshal")
	}
	return download, nil
}
