package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"socialapp/internal/config"
)

const s3PresignTTL = 15 * time.Minute

type objectDeleter interface {
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type putPresigner interface {
	PresignPutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3 stores images in an S3-compatible bucket (AWS, MinIO). The file id is the object key.
type S3 struct {
	objects       objectDeleter
	presigner     putPresigner
	bucket        string
	publicBaseURL string
	now           func() time.Time
}

func NewS3(ctx context.Context, cfg config.S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3{
		objects:       client,
		presigner:     s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		now:           time.Now,
	}, nil
}

func (s *S3) objectKey() string {
	d := s.now().UTC()
	return fmt.Sprintf("posts/%d/%02d/%02d/%s", d.Year(), d.Month(), d.Day(), uuid.NewString())
}

func (s *S3) UploadAuth(ctx context.Context) (*UploadAuth, error) {
	key := s.objectKey()
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s3PresignTTL))
	if err != nil {
		return nil, fmt.Errorf("s3: presign put: %w", err)
	}

	auth := &UploadAuth{
		UploadURL: req.URL,
		Key:       key,
		Expire:    s.now().Add(s3PresignTTL).Unix(),
	}
	if s.publicBaseURL != "" {
		auth.PublicURL = s.publicBaseURL + "/" + key
	}
	return auth, nil
}

func (s *S3) Delete(ctx context.Context, fileID string) error {
	if strings.TrimSpace(fileID) == "" {
		return ErrEmptyFileID
	}
	_, err := s.objects.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fileID),
	})
	if err != nil {
		return fmt.Errorf("s3: delete %s: %w", fileID, err)
	}
	return nil
}
