package s3blob

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// uploader is the part of manager.Uploader the publisher needs.
type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Publisher uploads run artifacts under <prefix>/<run-id>/<file name>.
type Publisher struct {
	up     uploader
	bucket string
	prefix string
	logger *slog.Logger
}

// New connects to the bucket described by cfg.
func New(ctx context.Context, cfg ClientConfig, logger *slog.Logger) (*Publisher, error) {
	client, err := NewS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return newPublisher(manager.NewUploader(client), cfg, logger), nil
}

func newPublisher(up uploader, cfg ClientConfig, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		up:     up,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: logger.With(slog.String("component", "s3_publisher")),
	}
}

// ObjectKey returns the key a file is stored under for a run.
func (p *Publisher) ObjectKey(runID, file string) string {
	return path.Join(p.prefix, runID, filepath.Base(file))
}

// PublishRun uploads every file in paths. The first failure aborts the upload.
func (p *Publisher) PublishRun(ctx context.Context, runID string, paths []string) error {
	for _, file := range paths {
		if err := p.upload(ctx, runID, file); err != nil {
			return err
		}
	}
	p.logger.InfoContext(ctx, "Run artifacts published",
		slog.String("bucket", p.bucket),
		slog.String("run_id", runID),
		slog.Int("files", len(paths)))
	return nil
}

func (p *Publisher) upload(ctx context.Context, runID, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("s3blob: open %s: %w", file, err)
	}
	defer f.Close()

	key := p.ObjectKey(runID, file)
	contentType := contentTypeFor(file)

	_, err = p.up.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3blob: upload %s: %w", key, err)
	}
	p.logger.DebugContext(ctx, "Uploaded object", slog.String("key", key))
	return nil
}

func contentTypeFor(file string) string {
	switch ext := strings.ToLower(filepath.Ext(file)); ext {
	case ".csv":
		return "text/csv"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
		return "application/octet-stream"
	}
}
