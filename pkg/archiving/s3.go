package archiving

import (
	"context"
	"os"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"HostSampler/pkg/config"
	"HostSampler/pkg/logx"
)

// s3Client is the subset of the MinIO client used by the archiver.
type s3Client interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)

	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error

	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)

	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type minioClientWrapper struct {
	client *minio.Client
}

func (m *minioClientWrapper) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return m.client.BucketExists(ctx, bucketName)
}

func (m *minioClientWrapper) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return m.client.MakeBucket(ctx, bucketName, opts)
}

func (m *minioClientWrapper) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return m.client.StatObject(ctx, bucketName, objectName, opts)
}

func (m *minioClientWrapper) FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return m.client.FPutObject(ctx, bucketName, objectName, filePath, opts)
}

type s3Storage struct {
	client       s3Client
	bucketConfig config.BucketConfig
	bucketExists bool
}

// NewS3 connects to the bucket endpoint. The bucket itself is checked in
// Prepare.
func NewS3(cfg config.BucketConfig) (Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create minio client")
	}
	logx.As().Debug().
		Str("storage_type", TypeS3).
		Str("endpoint", cfg.Endpoint).
		Str("bucket", cfg.Bucket).
		Msg("MinIO client created")
	return newS3Storage(&minioClientWrapper{client: client}, cfg), nil
}

func newS3Storage(client s3Client, cfg config.BucketConfig) *s3Storage {
	return &s3Storage{client: client, bucketConfig: cfg}
}

func (s *s3Storage) Type() string { return TypeS3 }

// Prepare creates the bucket when it does not exist.
func (s *s3Storage) Prepare(ctx context.Context) error {
	if s.bucketExists {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.bucketConfig.Bucket)
	if err != nil {
		return errors.Wrapf(err, "failed to check bucket %s", s.bucketConfig.Bucket)
	}
	if !exists {
		logx.As().Info().
			Str("storage_type", s.Type()).
			Str("bucket", s.bucketConfig.Bucket).
			Msg("Bucket does not exist, creating it")
		if err := s.client.MakeBucket(ctx, s.bucketConfig.Bucket, minio.MakeBucketOptions{Region: s.bucketConfig.Region}); err != nil {
			return errors.Wrapf(err, "failed to create bucket %s", s.bucketConfig.Bucket)
		}
	}

	s.bucketExists = true
	return nil
}

// etagMatches reports whether an object's ETag describes the local file.
// Multipart ETags ("<md5 of part md5s>-<parts>") are not a file MD5, so for
// those only the size is compared.
func etagMatches(etag string, size int64, localChecksum string, localSize int64) bool {
	if strings.Contains(etag, "-") {
		return size == localSize
	}
	return etag == localChecksum
}

// Store uploads src below the configured prefix. The upload is skipped when
// the object's ETag already matches the local file.
func (s *s3Storage) Store(ctx context.Context, src, object string) (*ArchiveInfo, error) {
	objectName := path.Join(s.bucketConfig.Prefix, object)

	stat, err := os.Stat(src)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat %s", src)
	}
	localChecksum, err := fileMD5(src)
	if err != nil {
		return nil, errors.Wrap(err, "failed to calculate local checksum")
	}

	attr, err := s.client.StatObject(ctx, s.bucketConfig.Bucket, objectName, minio.StatObjectOptions{})
	if err == nil && etagMatches(attr.ETag, attr.Size, localChecksum, stat.Size()) {
		logx.As().Info().
			Str("src", src).
			Str("object", objectName).
			Str("md5", attr.ETag).
			Str("bucket", s.bucketConfig.Bucket).
			Msg("File already exists in bucket, skipping upload")
		return &ArchiveInfo{
			Src:          src,
			Dest:         attr.Key,
			ChecksumType: "md5",
			Checksum:     attr.ETag,
			Size:         attr.Size,
			LastModified: attr.LastModified,
			Skipped:      true,
		}, nil
	}

	info, err := s.client.FPutObject(ctx, s.bucketConfig.Bucket, objectName, src, minio.PutObjectOptions{
		SendContentMd5: true,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to upload %s to bucket %s", src, s.bucketConfig.Bucket)
	}
	if !etagMatches(info.ETag, info.Size, localChecksum, stat.Size()) {
		return nil, errors.Errorf("checksum mismatch after upload of %s: expected %s, got %s", src, localChecksum, info.ETag)
	}

	logx.As().Info().
		Str("src", src).
		Str("object", objectName).
		Str("checksum", info.ETag).
		Str("bucket", s.bucketConfig.Bucket).
		Int64("size", info.Size).
		Msg("File uploaded to the bucket")
	return &ArchiveInfo{
		Src:          src,
		Dest:         info.Key,
		ChecksumType: "md5",
		Checksum:     info.ETag,
		Size:         info.Size,
		LastModified: info.LastModified,
	}, nil
}
