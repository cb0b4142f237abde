package s3blob

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bdexports/internal/config"
)

type fakeUploader struct {
	objects map[string]string
	types   map[string]string
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Key)
	f.objects[key] = string(body)
	f.types[key] = aws.ToString(in.ContentType)
	return &manager.UploadOutput{Key: in.Key}, nil
}

func TestPublishRun(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "monthly_export_data.csv")
	listPath := filepath.Join(dir, "failed_files.txt")
	require.NoError(t, os.WriteFile(csvPath, []byte("hs_code,country,month,USD\n"), 0o644))
	require.NoError(t, os.WriteFile(listPath, []byte("x.xlsx (unrecognised filename)\n"), 0o644))

	up := &fakeUploader{objects: map[string]string{}, types: map[string]string{}}
	p := newPublisher(up, ClientConfig{Bucket: "exports", Prefix: "bdexports"}, nil)

	require.NoError(t, p.PublishRun(context.Background(), "run-1", []string{csvPath, listPath}))

	assert.Equal(t, "hs_code,country,month,USD\n", up.objects["bdexports/run-1/monthly_export_data.csv"])
	assert.Contains(t, up.objects, "bdexports/run-1/failed_files.txt")
	assert.Contains(t, up.types["bdexports/run-1/monthly_export_data.csv"], "csv")
}

func TestPublishRun_Errors(t *testing.T) {
	p := newPublisher(&fakeUploader{err: errors.New("denied")}, ClientConfig{Bucket: "b"}, nil)

	err := p.PublishRun(context.Background(), "r", []string{filepath.Join(t.TempDir(), "missing.csv")})
	assert.ErrorContains(t, err, "open")

	file := filepath.Join(t.TempDir(), "a.csv")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	err = p.PublishRun(context.Background(), "r", []string{file})
	assert.ErrorContains(t, err, "denied")
}

func TestObjectKey(t *testing.T) {
	p := newPublisher(nil, ClientConfig{}, nil)
	assert.Equal(t, "r1/a.csv", p.ObjectKey("r1", "/tmp/x/a.csv"))
}

func TestNormaliseEndpoint(t *testing.T) {
	assert.Equal(t, "https://minio:9000", normaliseEndpoint("minio:9000", true))
	assert.Equal(t, "http://minio:9000", normaliseEndpoint("minio:9000", false))
	assert.Equal(t, "http://r2.example", normaliseEndpoint("http://r2.example", true))
}

func TestNewS3Client_Validation(t *testing.T) {
	_, err := NewS3Client(context.Background(), ClientConfig{Region: "us-east-1"})
	assert.ErrorContains(t, err, "bucket")
	_, err = NewS3Client(context.Background(), FromConfig(config.PublishConfig{Bucket: "b"}))
	assert.ErrorContains(t, err, "region")
}
