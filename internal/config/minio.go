package config

import (
	"context"
	"encoding/json"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Key prefixes for uploaded images. Only these are anonymously readable.
const (
	CampaignImagePrefix = "campaigns"
	BlogImagePrefix     = "blogs"
)

type policyStatement struct {
	Effect    string   `json:"Effect"`
	Principal string   `json:"Principal"`
	Action    []string `json:"Action"`
	Resource  []string `json:"Resource"`
}

type bucketPolicy struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// imageReadPolicy grants anonymous GetObject on the given prefixes of bucket
// and nothing else.
func imageReadPolicy(bucket string, prefixes ...string) (string, error) {
	resources := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		resources = append(resources, "arn:aws:s3:::"+bucket+"/"+p+"/*")
	}
	data, err := json.Marshal(bucketPolicy{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: "*",
			Action:    []string{"s3:GetObject"},
			Resource:  resources,
		}},
	})
	return string(data), err
}

func NewMinIOClient(cfg *Config, logger *zap.Logger) (*minio.Client, error) {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := ensureBucket(ctx, client, cfg.MinIOBucket, logger); err != nil {
		return nil, err
	}

	policy, err := imageReadPolicy(cfg.MinIOBucket, CampaignImagePrefix, BlogImagePrefix)
	if err == nil {
		err = client.SetBucketPolicy(ctx, cfg.MinIOBucket, policy)
	}
	if err != nil {
		// Uploads still work; image URLs just will not resolve anonymously.
		logger.Warn("image prefixes not public", zap.String("bucket", cfg.MinIOBucket), zap.Error(err))
	}
	return client, nil
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket string, logger *zap.Logger) error {
	ok, err := client.BucketExists(ctx, bucket)
	if err != nil || ok {
		return err
	}
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return err
	}
	logger.Info("bucket created", zap.String("bucket", bucket))
	return nil
}
