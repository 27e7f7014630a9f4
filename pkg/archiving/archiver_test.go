package archiving

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"HostSampler/pkg/config"
)

// mockS3Client is a mock implementation of the s3Client interface.
type mockS3Client struct {
	mock.Mock
}

func (m *mockS3Client) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *mockS3Client) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	args := m.Called(ctx, bucketName, opts)
	return args.Error(0)
}

func (m *mockS3Client) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Get(0).(minio.ObjectInfo), args.Error(1)
}

func (m *mockS3Client) FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, filePath, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestS3PrepareCreatesMissingBucket(t *testing.T) {
	client := new(mockS3Client)
	s := newS3Storage(client, config.BucketConfig{Bucket: "runs", Region: "eu-west-1"})

	client.On("BucketExists", mock.Anything, "runs").Return(false, nil).Once()
	client.On("MakeBucket", mock.Anything, "runs", minio.MakeBucketOptions{Region: "eu-west-1"}).Return(nil).Once()
	require.NoError(t, s.Prepare(context.Background()))

	// cached after the first check
	require.NoError(t, s.Prepare(context.Background()))
	client.AssertExpectations(t)
}

func TestS3PrepareFails(t *testing.T) {
	client := new(mockS3Client)
	s := newS3Storage(client, config.BucketConfig{Bucket: "runs"})

	client.On("BucketExists", mock.Anything, "runs").Return(false, nil).Once()
	client.On("MakeBucket", mock.Anything, "runs", mock.Anything).Return(errors.New("denied")).Once()
	assert.Error(t, s.Prepare(context.Background()))
	assert.False(t, s.bucketExists)
}

func TestS3Store(t *testing.T) {
	src := writeSource(t, t.TempDir(), "system_data.csv", "INTERVAL_SECONDS=1\n")
	checksum, err := fileMD5(src)
	require.NoError(t, err)

	client := new(mockS3Client)
	s := newS3Storage(client, config.BucketConfig{Bucket: "runs", Prefix: "samples"})
	object := "samples/node-1/run/system_data.csv"

	// identical object already present
	client.On("StatObject", mock.Anything, "runs", object, mock.Anything).
		Return(minio.ObjectInfo{ETag: checksum, Key: object}, nil).Once()
	info, err := s.Store(context.Background(), src, "node-1/run/system_data.csv")
	require.NoError(t, err)
	assert.True(t, info.Skipped)
	assert.Equal(t, object, info.Dest)

	// missing object is uploaded
	client.On("StatObject", mock.Anything, "runs", object, mock.Anything).
		Return(minio.ObjectInfo{}, errors.New("not found")).Once()
	client.On("FPutObject", mock.Anything, "runs", object, src, mock.Anything).
		Return(minio.UploadInfo{ETag: checksum, Key: object, Size: 19}, nil).Once()
	info, err = s.Store(context.Background(), src, "node-1/run/system_data.csv")
	require.NoError(t, err)
	assert.False(t, info.Skipped)
	assert.Equal(t, int64(19), info.Size)

	// checksum mismatch after upload
	client.On("StatObject", mock.Anything, "runs", object, mock.Anything).
		Return(minio.ObjectInfo{}, errors.New("not found")).Once()
	client.On("FPutObject", mock.Anything, "runs", object, src, mock.Anything).
		Return(minio.UploadInfo{ETag: "invalid", Key: object}, nil).Once()
	_, err = s.Store(context.Background(), src, "node-1/run/system_data.csv")
	assert.Error(t, err)

	client.AssertExpectations(t)
}

func TestS3StoreMultipartETag(t *testing.T) {
	content := "INTERVAL_SECONDS=1\n"
	src := writeSource(t, t.TempDir(), "system_data.csv", content)
	size := int64(len(content))

	client := new(mockS3Client)
	s := newS3Storage(client, config.BucketConfig{Bucket: "runs"})
	object := "node-1/run/system_data.csv"
	multipart := "9b2cf535f27731c974343645a3985328-3"

	// multipart object of the same size is already present
	client.On("StatObject", mock.Anything, "runs", object, mock.Anything).
		Return(minio.ObjectInfo{ETag: multipart, Key: object, Size: size}, nil).Once()
	info, err := s.Store(context.Background(), src, object)
	require.NoError(t, err)
	assert.True(t, info.Skipped)

	// multipart upload succeeds
	client.On("StatObject", mock.Anything, "runs", object, mock.Anything).
		Return(minio.ObjectInfo{}, errors.New("not found")).Once()
	client.On("FPutObject", mock.Anything, "runs", object, src, mock.Anything).
		Return(minio.UploadInfo{ETag: multipart, Key: object, Size: size}, nil).Once()
	info, err = s.Store(context.Background(), src, object)
	require.NoError(t, err)
	assert.False(t, info.Skipped)
	assert.Equal(t, multipart, info.Checksum)

	// multipart upload with a short size is rejected
	client.On("StatObject", mock.Anything, "runs", object, mock.Anything).
		Return(minio.ObjectInfo{ETag: multipart, Key: object, Size: size - 1}, nil).Once()
	client.On("FPutObject", mock.Anything, "runs", object, src, mock.Anything).
		Return(minio.UploadInfo{ETag: multipart, Key: object, Size: size - 1}, nil).Once()
	_, err = s.Store(context.Background(), src, object)
	assert.ErrorContains(t, err, "checksum mismatch")

	client.AssertExpectations(t)
}

func TestLocalDirStore(t *testing.T) {
	src := writeSource(t, t.TempDir(), "system_data.csv", "row\n")
	root := filepath.Join(t.TempDir(), "archive")
	s := NewLocalDir(config.LocalDirConfig{Enabled: true, Path: root})

	require.NoError(t, s.Prepare(context.Background()))
	assert.DirExists(t, root)

	info, err := s.Store(context.Background(), src, "node-1/run/system_data.csv")
	require.NoError(t, err)
	assert.False(t, info.Skipped)
	dest := filepath.Join(root, "node-1", "run", "system_data.csv")
	assert.Equal(t, dest, info.Dest)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "row\n", string(got))

	info, err = s.Store(context.Background(), src, "node-1/run/system_data.csv")
	require.NoError(t, err)
	assert.True(t, info.Skipped)
}

func TestLocalDirStoreMissingSource(t *testing.T) {
	s := NewLocalDir(config.LocalDirConfig{Path: t.TempDir()})
	_, err := s.Store(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), "x")
	assert.Error(t, err)
}

func TestArchiverObjectName(t *testing.T) {
	a := NewWithStorages("node-1", "0d2c")
	assert.Equal(t, "node-1/0d2c/system_data.csv", a.ObjectName("/var/tmp/system_data.csv"))
}

func TestArchiverContinuesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	data := writeSource(t, dir, "system_data.csv", "row\n")
	plot := writeSource(t, dir, "system_data_plot.html", "<html></html>")

	client := new(mockS3Client)
	client.On("BucketExists", mock.Anything, "runs").Return(false, errors.New("unreachable"))
	root := filepath.Join(t.TempDir(), "archive")

	a := NewWithStorages("node-1", "run-1",
		newS3Storage(client, config.BucketConfig{Bucket: "runs"}),
		NewLocalDir(config.LocalDirConfig{Path: root}),
	)
	infos, err := a.Archive(context.Background(), data, plot)
	assert.Error(t, err)
	require.Len(t, infos, 2)
	assert.FileExists(t, filepath.Join(root, "node-1", "run-1", "system_data.csv"))
	assert.FileExists(t, filepath.Join(root, "node-1", "run-1", "system_data_plot.html"))
}
