package snapstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"tidy-go/internal/config"
	"tidy-go/internal/safety"
)

// S3Store keeps snapshots in an S3 bucket under
// <prefix>/<operation_id>/{content,meta.toml}. It exists for hosts whose
// local snapshot root would live on the same disk being cleaned.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Store creates an S3-backed snapshot store from config. When an access
// key is configured it is used as a static credential; otherwise the default
// AWS credential chain applies.
func NewS3Store(cfg config.SnapshotsConfig) (*S3Store, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 snapshot store requires s3_bucket to be set")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.S3Bucket,
		prefix:   strings.Trim(cfg.S3Prefix, "/"),
	}, nil
}

func (s *S3Store) key(opID, name string) string {
	if s.prefix == "" {
		return path.Join(opID, name)
	}
	return path.Join(s.prefix, opID, name)
}

func (s *S3Store) PutContent(opID string, r io.Reader, size int64) error {
	_, err := s.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(opID, "content")),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("uploading snapshot content: %w", err)
	}
	return nil
}

func (s *S3Store) GetContent(opID string, w io.Writer) error {
	out, err := s.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(opID, "content")),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return fmt.Errorf("snapshot content not found for operation %s", opID)
		}
		return fmt.Errorf("downloading snapshot content: %w", err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("reading snapshot content: %w", err)
	}
	return nil
}

func (s *S3Store) PutMeta(opID string, meta *safety.SnapshotMeta) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(meta); err != nil {
		return fmt.Errorf("encoding sidecar: %w", err)
	}

	_, err := s.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(opID, "meta.toml")),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		return fmt.Errorf("uploading sidecar: %w", err)
	}
	return nil
}

func (s *S3Store) GetMeta(opID string) (*safety.SnapshotMeta, error) {
	out, err := s.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(opID, "meta.toml")),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("downloading sidecar: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading sidecar: %w", err)
	}

	var meta safety.SnapshotMeta
	if err := toml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decoding sidecar for operation %s: %w", opID, err)
	}
	return &meta, nil
}

func (s *S3Store) Delete(opID string) error {
	objects := []types.ObjectIdentifier{
		{Key: aws.String(s.key(opID, "content"))},
		{Key: aws.String(s.key(opID, "meta.toml"))},
	}
	_, err := s.client.DeleteObjects(context.Background(), &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("deleting snapshot %s: %w", opID, err)
	}
	return nil
}

func (s *S3Store) List() ([]*safety.SnapshotInfo, error) {
	listPrefix := ""
	if s.prefix != "" {
		listPrefix = s.prefix + "/"
	}

	var infos []*safety.SnapshotInfo
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(listPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(context.Background())
		if err != nil {
			return nil, fmt.Errorf("listing snapshots: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, "/meta.toml") {
				continue
			}
			rel := strings.TrimPrefix(key, listPrefix)
			opID := strings.TrimSuffix(rel, "/meta.toml")
			infos = append(infos, &safety.SnapshotInfo{
				OperationID: opID,
				CreatedAt:   aws.ToTime(obj.LastModified),
			})
		}
	}
	return infos, nil
}

func (s *S3Store) ValidateSetup() error {
	_, err := s.client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", s.bucket, err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	var noKey *types.NoSuchKey
	return errors.As(err, &noKey)
}

// Compile-time check
var _ safety.SnapshotStore = (*S3Store)(nil)
