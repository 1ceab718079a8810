// internal/store/s3.go
package store

import (
	"bytes"
	"context"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"ecomlisting-ai/internal/common/logger"
)

// s3API is the slice of the S3 client the store uses.
type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store implements Store over an S3 bucket. Folder IDs are key prefixes
// ending in "/"; file IDs are full object keys.
type S3Store struct {
	client s3API
	bucket string
	retry  RetryPolicy
	logger logger.Logger
}

func NewS3Store(ctx context.Context, region, bucket string, retry RetryPolicy, log logger.Logger) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &S3Store{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
		retry:  retry,
		logger: log.WithFields(map[string]interface{}{
			"component": "store",
			"bucket":    bucket,
		}),
	}, nil
}

// newS3StoreWithClient is used by tests to inject a fake client.
func newS3StoreWithClient(client s3API, bucket string, retry RetryPolicy, log logger.Logger) *S3Store {
	return &S3Store{client: client, bucket: bucket, retry: retry, logger: log}
}

func (s *S3Store) FindOrCreateFolder(ctx context.Context, name, parentID string) (string, error) {
	prefix := folderPrefix(parentID, name)

	err := s.retry.Do(ctx, "find_or_create_folder", func() error {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:  aws.String(s.bucket),
			Prefix:  aws.String(prefix),
			MaxKeys: aws.Int32(1),
		})
		if err != nil {
			return err
		}
		if len(out.Contents) > 0 {
			return nil
		}

		// Empty folders exist as zero-byte marker objects.
		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(prefix),
			Body:   bytes.NewReader(nil),
		})
		return err
	})
	if err != nil {
		return "", err
	}

	return prefix, nil
}

func (s *S3Store) List(ctx context.Context, parentID, mimeFilter string) ([]File, error) {
	var files []File

	err := s.retry.Do(ctx, "list", func() error {
		files = files[:0]
		var token *string
		for {
			out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
				Bucket:            aws.String(s.bucket),
				Prefix:            aws.String(parentID),
				Delimiter:         aws.String("/"),
				ContinuationToken: token,
			})
			if err != nil {
				return err
			}

			for _, obj := range out.Contents {
				key := aws.ToString(obj.Key)
				if key == parentID {
					continue // folder marker
				}
				name := strings.TrimPrefix(key, parentID)
				mimeType := mimeOf(name)
				if mimeFilter != "" && !strings.Contains(mimeType, mimeFilter) {
					continue
				}
				files = append(files, File{ID: key, Name: name, MimeType: mimeType})
			}

			if out.NextContinuationToken == nil {
				return nil
			}
			token = out.NextContinuationToken
		}
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

func (s *S3Store) Get(ctx context.Context, id string) ([]byte, error) {
	var data []byte

	err := s.retry.Do(ctx, "get", func() error {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(id),
		})
		if err != nil {
			return err
		}
		defer out.Body.Close()

		data, err = io.ReadAll(out.Body)
		return err
	})
	if err != nil {
		return nil, err
	}

	return data, nil
}

func (s *S3Store) Put(ctx context.Context, name string, data []byte, mimeType, parentID string) error {
	key := parentID + name

	err := s.retry.Do(ctx, "put", func() error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(mimeType),
		})
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("artifact stored", map[string]interface{}{
		"key":   key,
		"bytes": len(data),
	})
	return nil
}

func folderPrefix(parentID, name string) string {
	joined := path.Join(strings.TrimSuffix(parentID, "/"), name)
	joined = strings.TrimPrefix(joined, "/")
	return joined + "/"
}

// Domain types the platform mime table may not know.
var extraMimeTypes = map[string]string{
	".mp4": "video/mp4",
	".mp3": "audio/mpeg",
	".txt": "text/plain",
	".zip": "application/zip",
	".ttf": "font/ttf",
}

func mimeOf(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if mt, ok := extraMimeTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
