// Package publish uploads exported PMTiles archives to S3 so map clients can
// fetch them over HTTP range requests.
package publish

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/joeblew999/plat-gold/internal/logging"
)

// ObjectPutter is the subset of *s3.Client the publisher needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Options configures an S3 publisher.
type Options struct {
	Bucket string
	Region string
	Prefix string
}

// Publisher uploads archives to one bucket.
type Publisher struct {
	client ObjectPutter
	opts   Options
	log    logging.Logger
}

// NewS3 loads AWS credentials from the environment and returns a publisher
// for opts.Bucket.
func NewS3(ctx context.Context, opts Options, log logging.Logger) (*Publisher, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if opts.Region == "" {
		opts.Region = cfg.Region
	}
	return New(s3.NewFromConfig(cfg), opts, log), nil
}

// New wraps an existing client.
func New(client ObjectPutter, opts Options, log logging.Logger) *Publisher {
	if log == nil {
		log = logging.Noop()
	}
	return &Publisher{client: client, opts: opts, log: log}
}

// Key returns the object key for a local file name.
func (p *Publisher) Key(name string) string {
	if p.opts.Prefix == "" {
		return name
	}
	return path.Join(p.opts.Prefix, name)
}

// URL returns the public URL of key.
func (p *Publisher) URL(key string) string {
	if p.opts.Region == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", p.opts.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.opts.Bucket, p.opts.Region, key)
}

// Upload puts the archive at file and returns its URL.
func (p *Publisher) Upload(ctx context.Context, file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	key := p.Key(filepath.Base(file))
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(p.opts.Bucket),
		Key:          aws.String(key),
		Body:         f,
		ContentType:  aws.String("application/vnd.pmtiles"),
		CacheControl: aws.String("public, max-age=300"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	url := p.URL(key)
	p.log.Info(ctx, "archive uploaded", logging.String("key", key), logging.Int("bytes", int(info.Size())), logging.String("url", url))
	return url, nil
}
