package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/iqbalbaharum/hyper-sdk/internal/types"
	"github.com/redis/go-redis/v9"
)

// DeploymentStorage keeps one deployment record per chain id in a redis hash.
type DeploymentStorage struct {
	client *redis.Client
}

func NewDeploymentStorage(client *redis.Client) *DeploymentStorage {
	return &DeploymentStorage{client: client}
}

func (s *DeploymentStorage) SetDeployment(ctx context.Context, d *types.Deployment) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}

	return s.client.HSet(ctx, KEY_DEPLOYMENT, strconv.FormatUint(d.ChainId, 10), data).Err()
}

func (s *DeploymentStorage) GetDeployment(ctx context.Context, chainId uint64) (*types.Deployment, error) {
	data, err := s.client.HGet(ctx, KEY_DEPLOYMENT, strconv.FormatUint(chainId, 10)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDeploymentNotFound
		}
		return nil, err
	}

	var d types.Deployment
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, err
	}

	return &d, nil
}
