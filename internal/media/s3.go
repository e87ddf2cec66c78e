package media

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Config represents the settings required to talk to S3 or an S3-compatible API.
type Config struct {
	Bucket         string
	Region         string
	Endpoint       string
	PublicURL      string
	KeyPrefix      string
	ForcePathStyle bool
}

// NewPublisher wires an S3 client if the configuration is complete, otherwise
// a disabled publisher.
func NewPublisher(ctx context.Context, cfg Config) (Publisher, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return Disabled(), nil
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}

	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		loadOpts = append(loadOpts, config.WithEndpointResolverWithOptions(
			aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
				if service == s3.ServiceID {
					return aws.Endpoint{
						URL:           endpoint,
						PartitionID:   "aws",
						SigningRegion: cfg.Region,
					}, nil
				}
				return aws.Endpoint{}, &aws.EndpointNotFoundError{}
			}),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws sdk config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.UsePathStyle = cfg.ForcePathStyle
		}
	})

	// Fallback so S3-compatible storage without PublicURL still works for reads.
	publicURL := strings.TrimSuffix(cfg.PublicURL, "/")
	if publicURL == "" && cfg.Endpoint != "" && cfg.ForcePathStyle {
		publicURL = fmt.Sprintf("%s/%s", strings.TrimSuffix(cfg.Endpoint, "/"), cfg.Bucket)
	}

	return &s3Publisher{
		client:  client,
		bucket:  cfg.Bucket,
		region:  cfg.Region,
		baseURL: publicURL,
		prefix:  strings.Trim(cfg.KeyPrefix, "/"),
	}, nil
}

type s3Publisher struct {
	client  *s3.Client
	bucket  string
	region  string
	baseURL string
	prefix  string
}

// Publish stores the archive in the configured bucket under a job-scoped key
// and returns its public URL.
func (p *s3Publisher) Publish(ctx context.Context, jobID, filePath string) (PublishResult, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return PublishResult{}, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return PublishResult{}, fmt.Errorf("stat archive: %w", err)
	}

	key := p.buildKey(jobID, filePath)
	putInput := &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentType:   aws.String("application/zip"),
		ContentLength: aws.Int64(info.Size()),
	}
	if _, err := p.client.PutObject(ctx, putInput); err != nil {
		return PublishResult{}, fmt.Errorf("put object: %w", err)
	}

	return PublishResult{
		Key: key,
		URL: p.objectURL(key),
	}, nil
}

func (p *s3Publisher) buildKey(jobID, filePath string) string {
	name := uuid.NewString()
	if ext := strings.ToLower(filepath.Ext(filePath)); ext != "" {
		name += ext
	}

	parts := []string{jobID, name}
	if p.prefix != "" {
		parts = append([]string{p.prefix}, parts...)
	}
	return path.Join(parts...)
}

func (p *s3Publisher) objectURL(key string) string {
	if p.baseURL != "" {
		return fmt.Sprintf("%s/%s", p.baseURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucket, p.region, key)
}
