package redis_repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/horizon/models"
)

const artifactKeyPrefix = "horizon:artifact:"

// redisArtifactRepository stores scan artifacts as two string keys per slug
type redisArtifactRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func reportKey(slug string) string { return artifactKeyPrefix + slug + ":dr" }
func parsedKey(slug string) string { return artifactKeyPrefix + slug + ":parsed" }

func (r redisArtifactRepository) LoadArtifacts(ctx context.Context, slug string) (models.Artifacts, error) {
	var out models.Artifacts

	report, err := r.client.Get(ctx, reportKey(slug)).Result()
	switch {
	case err == nil:
		out.Report = &report
	case !errors.Is(err, redis.Nil):
		return out, err
	}

	val, err := r.client.Get(ctx, parsedKey(slug)).Result()
	switch {
	case err == nil:
		var parsed models.ParsedResearch
		if err := json.Unmarshal([]byte(val), &parsed); err != nil {
			return out, err
		}
		out.Parsed = &parsed
	case !errors.Is(err, redis.Nil):
		return out, err
	}

	if out.Report == nil && out.Parsed == nil {
		return out, models.ErrArtifactNotFound
	}
	return out, nil
}

func (r redisArtifactRepository) SaveArtifacts(ctx context.Context, slug string, a models.Artifacts) error {
	if a.Report == nil && a.Parsed == nil {
		return nil
	}
	pipe := r.client.TxPipeline()
	if a.Report != nil {
		pipe.Set(ctx, reportKey(slug), *a.Report, r.ttl)
	}
	if a.Parsed != nil {
		data, err := json.Marshal(a.Parsed)
		if err != nil {
			return err
		}
		pipe.Set(ctx, parsedKey(slug), data, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r redisArtifactRepository) DeleteArtifacts(ctx context.Context, slug string) error {
	return r.client.Del(ctx, reportKey(slug), parsedKey(slug)).Err()
}

// NewRedisArtifactRepository stores artifacts in client; a zero ttl keeps them forever.
func NewRedisArtifactRepository(client *redis.Client, ttl time.Duration) *redisArtifactRepository {
	return &redisArtifactRepository{
		client: client,
		ttl:    ttl,
	}
}
