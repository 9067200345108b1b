package storage

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Storage mirrors content-addressed files into an S3-compatible bucket.
// Keys are the store-relative paths, optionally under Config.Prefix.
type S3Storage struct {
	client *s3.Client
	bucket string
	prefix string
	acl    types.ObjectCannedACL
}

// New builds an S3Storage from cfg.
func New(cfg Config) (*S3Storage, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client := s3.New(s3.Options{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
	}, func(o *s3.Options) {
		if cfg.Endpoint == "" {
			return
		}
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = cfg.PathStyle
	})

	acl := types.ObjectCannedACLPrivate
	if cfg.DefaultACL == ACLPublicRead {
		acl = types.ObjectCannedACLPublicRead
	}

	return &S3Storage{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		acl:    acl,
	}, nil
}

// Upload puts body under name. A seekable body lets the SDK sign the
// payload without buffering it.
func (s *S3Storage) Upload(ctx context.Context, name string, body io.ReadSeeker, size int64, contentType string) error {
	if contentType == "" {
		contentType = MIMEOctetStream
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(name)),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           s.acl,
	})
	if err != nil {
		return wrapS3Error(err, ErrUploadFailed)
	}
	return nil
}

// Delete removes the mirrored copy of name. Missing objects are not an error
// for S3, so deleting twice succeeds.
func (s *S3Storage) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return wrapS3Error(err, ErrDeleteFailed)
	}
	return nil
}

// key confines name to the bucket prefix; dot segments cannot climb out.
func (s *S3Storage) key(name string) string {
	k := strings.TrimPrefix(path.Clean("/"+name), "/")
	if s.prefix == "" {
		return k
	}
	return s.prefix + "/" + k
}
