package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/lesson-harvester/internal/repository"
	"github.com/user/lesson-harvester/pkg/utils"
)

const harvestedKeyPrefix = "harvester:harvested:"

// HarvestedRepoImpl remembers harvested activity pages as expiring Redis keys.
type HarvestedRepoImpl struct {
	client *redis.Client
}

var _ repository.HarvestedRepository = (*HarvestedRepoImpl)(nil)

func NewHarvestedRepo(client *redis.Client) *HarvestedRepoImpl {
	return &HarvestedRepoImpl{client: client}
}

// key hashes the URL so long query strings stay bounded.
func (r *HarvestedRepoImpl) key(url string) string {
	return fmt.Sprintf("%s%s", harvestedKeyPrefix, utils.HashURL(url))
}

func (r *HarvestedRepoImpl) MarkHarvested(ctx context.Context, url string, expiry time.Duration) error {
	return r.client.SetEx(ctx, r.key(url), time.Now().UTC().Format(time.RFC3339), expiry).Err()
}

func (r *HarvestedRepoImpl) IsHarvested(ctx context.Context, url string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(url)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *HarvestedRepoImpl) RemoveHarvested(ctx context.Context, url string) error {
	return r.client.Del(ctx, r.key(url)).Err()
}
