package store

import (
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ghrcdaac/cumulus-audit/common"
)

// S3 fetches the replaced lambda payloads the backfill pass occasionally
// needs.
type S3 struct {
	client *s3.Client
}

func NewS3(awsConfig *common.AWSConfig) (*S3, error) {
	client, err := newRawS3Client(awsConfig)
	if err != nil {
		return nil, err
	}

	return &S3{client: client}, nil
}

func newRawS3Client(awsConfig *common.AWSConfig) (*s3.Client, error) {
	region := awsConfig.Region
	if region == "" {
		region = "us-east-1"
	}
	options := []func(*config.LoadOptions) error{config.WithRegion(region)}

	if awsConfig.AccessKey != "" {
		options = append(options,
			config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(awsConfig.AccessKey, awsConfig.SecretKey, "")),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cfg, err := config.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if awsConfig.Endpoint != "" {
			o.BaseEndpoint = aws.String(awsConfig.Endpoint)
			o.UsePathStyle = true
		}
	})

	return client, nil
}

func (s *S3) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}
