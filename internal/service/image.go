package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/foodgram/foodgram/backend/config"
	"github.com/foodgram/foodgram/backend/internal/logger"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
)

const imagePrefix = "recipes/images"

var dataURIPattern = regexp.MustCompile(`^data:image/([a-zA-Z0-9.+-]+);base64,(.+)$`)

// ImageStore persists decoded recipe images and returns their public URL.
type ImageStore interface {
	Save(ctx context.Context, img *DecodedImage) (string, error)
}

// DecodedImage is the payload of a data:image/...;base64 URI.
type DecodedImage struct {
	Ext         string
	ContentType string
	Data        []byte
}

// DecodeDataURI parses a "data:image/<ext>;base64,<payload>" string.
func DecodeDataURI(uri string) (*DecodedImage, error) {
	m := dataURIPattern.FindStringSubmatch(strings.TrimSpace(uri))
	if m == nil {
		return nil, fmt.Errorf("image must be a base64 data URI")
	}

	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return nil, fmt.Errorf("image is not valid base64: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image is empty")
	}

	ext := strings.ToLower(m[1])
	if ext == "jpeg" {
		ext = "jpg"
	}
	return &DecodedImage{
		Ext:         ext,
		ContentType: "image/" + strings.ToLower(m[1]),
		Data:        data,
	}, nil
}

func newImageKey(ext string) string {
	return path.Join(imagePrefix, uuid.New().String()+"."+ext)
}

// ObjectPutter is the subset of the S3 client used by S3ImageStore.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ImageStore uploads images to a bucket. Five consecutive upload failures
// open the breaker for 30s.
type S3ImageStore struct {
	client ObjectPutter
	bucket string
	urlFor func(key string) string
	cb     *gobreaker.CircuitBreaker[*s3.PutObjectOutput]
}

func NewS3ImageStore(cfg *config.S3Config) *S3ImageStore {
	return newS3ImageStore(cfg.Client, cfg.BucketName, cfg.PublicURL)
}

func newS3ImageStore(client ObjectPutter, bucket string, urlFor func(string) string) *S3ImageStore {
	cb := gobreaker.NewCircuitBreaker[*s3.PutObjectOutput](gobreaker.Settings{
		Name:        "s3-images",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("image store circuit breaker state changed")
		},
	})
	return &S3ImageStore{client: client, bucket: bucket, urlFor: urlFor, cb: cb}
}

func (s *S3ImageStore) Save(ctx context.Context, img *DecodedImage) (string, error) {
	key := newImageKey(img.Ext)
	_, err := s.cb.Execute(func() (*s3.PutObjectOutput, error) {
		return s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(img.Data),
			ContentType: aws.String(img.ContentType),
		})
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	url := s.urlFor(key)
	logger.Debug(ctx).Str("url", url).Msg("uploaded recipe image")
	return url, nil
}

// LocalImageStore writes images under a media directory served by the API.
type LocalImageStore struct {
	root    string
	baseURL string
}

func NewLocalImageStore(root, baseURL string) *LocalImageStore {
	return &LocalImageStore{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *LocalImageStore) Save(ctx context.Context, img *DecodedImage) (string, error) {
	key := newImageKey(img.Ext)
	full := filepath.Join(s.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(full, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return s.baseURL + "/" + key, nil
}
