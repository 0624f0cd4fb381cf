package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/horizon/config"
	"github.com/mohammad-safakhou/horizon/internal/logging"
	"github.com/mohammad-safakhou/horizon/models"
	"github.com/mohammad-safakhou/horizon/repository/redis_repository"
)

// ArtifactRepository defines the interface for scan artifact storage keyed by
// topic slug. LoadArtifacts returns models.ErrArtifactNotFound when nothing
// is stored for the slug.
type ArtifactRepository interface {
	LoadArtifacts(ctx context.Context, slug string) (models.Artifacts, error)
	SaveArtifacts(ctx context.Context, slug string, a models.Artifacts) error
	DeleteArtifacts(ctx context.Context, slug string) error
}

type RepoType string

const (
	RepoTypeFile  RepoType = "file"
	RepoTypeRedis RepoType = "redis"
	RepoTypeNone  RepoType = "none"
)

const maxSlugBase = 120

// Slug is the cache key of a topic: the lower-cased topic with spaces as
// underscores, cut to 120 characters, followed by the first 8 hex digits of
// the sha256 of the full topic.
func Slug(topic string) string {
	base := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(topic)), " ", "_")
	if r := []rune(base); len(r) > maxSlugBase {
		base = string(r[:maxSlugBase])
	}
	sum := sha256.Sum256([]byte(topic))
	return base + "_" + hex.EncodeToString(sum[:])[:8]
}

func NewArtifactRepository(ctx context.Context, cfg config.CacheConfig) (ArtifactRepository, error) {
	switch RepoType(cfg.Backend) {
	case RepoTypeFile, "":
		return NewFileArtifactRepository(cfg.Dir), nil
	case RepoTypeRedis:
		r := cfg.Redis
		c, err := redis_repository.Conn(ctx, r.Host, r.Port, r.Password, r.DB, r.Timeout)
		if err != nil {
			return nil, err
		}
		return redis_repository.NewRedisArtifactRepository(c, r.TTL), nil
	case RepoTypeNone:
		return nopRepository{}, nil
	}
	return nil, fmt.Errorf("invalid repository type: %s", cfg.Backend)
}

type nopRepository struct{}

func (nopRepository) LoadArtifacts(context.Context, string) (models.Artifacts, error) {
	return models.Artifacts{}, models.ErrArtifactNotFound
}
func (nopRepository) SaveArtifacts(context.Context, string, models.Artifacts) error { return nil }
func (nopRepository) DeleteArtifacts(context.Context, string) error                 { return nil }

// Cache is the topic-keyed view of a repository used by the scan pipeline.
// Storage failures are logged and never returned.
type Cache struct {
	repo ArtifactRepository
	log  *logging.Logger
}

func NewCache(repo ArtifactRepository, log *logging.Logger) *Cache {
	if repo == nil {
		repo = nopRepository{}
	}
	return &Cache{repo: repo, log: log}
}

// Load returns whatever is stored for topic; missing or unreadable artifacts
// come back as nil fields.
func (c *Cache) Load(ctx context.Context, topic string) models.Artifacts {
	a, err := c.repo.LoadArtifacts(ctx, Slug(topic))
	if err != nil && !errors.Is(err, models.ErrArtifactNotFound) {
		c.log.Warn("cache load failed", "topic", topic, "error", err)
	}
	return a
}

// Save stores the non-nil artifacts for topic.
func (c *Cache) Save(ctx context.Context, topic string, a models.Artifacts) {
	if err := c.repo.SaveArtifacts(ctx, Slug(topic), a); err != nil {
		c.log.Warn("cache save failed", "topic", topic, "error", err)
	}
}

// Forget drops the artifacts of topic.
func (c *Cache) Forget(ctx context.Context, topic string) {
	if err := c.repo.DeleteArtifacts(ctx, Slug(topic)); err != nil {
		c.log.Warn("cache delete failed", "topic", topic, "error", err)
	}
}
