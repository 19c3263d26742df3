package s3

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"folio/internal/domain/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// EnsureBucket creates spec.Name with a public-read policy when it is
// missing. S3 has no per-bucket MIME or size limits; those are enforced by
// the upload pipeline before anything reaches the bucket.
func (s *BlobStore) EnsureBucket(ctx context.Context, spec storage.BucketSpec) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(spec.Name)})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("failed to access bucket %s: %w", spec.Name, err)
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(spec.Name)})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if !errors.As(err, &owned) {
			return fmt.Errorf("failed to create bucket %s: %w", spec.Name, err)
		}
	}
	s.logger.Info("bucket created", "bucket", spec.Name)

	if !spec.Public {
		return nil
	}

	policy, err := publicReadPolicy(spec.Name)
	if err != nil {
		return err
	}
	_, err = s.client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(spec.Name),
		Policy: aws.String(policy),
	})
	if err != nil {
		return fmt.Errorf("failed to set public-read policy on %s: %w", spec.Name, err)
	}
	return nil
}

func publicReadPolicy(bucket string) (string, error) {
	doc := map[string]any{
		"Version": "2012-10-17",
		"Statement": []map[string]any{{
			"Sid":       "PublicRead",
			"Effect":    "Allow",
			"Principal": "*",
			"Action":    []string{"s3:GetObject"},
			"Resource":  []string{fmt.Sprintf("arn:aws:s3:::%s/*", bucket)},
		}},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal bucket policy: %w", err)
	}
	return string(data), nil
}
