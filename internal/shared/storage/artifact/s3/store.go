package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"quickapply-backend/internal/shared/storage/artifact"
)

const presignExpires = 15 * time.Minute

type api interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Options configures an S3-backed store.
type Options struct {
	Bucket string
	Prefix string
	// KMSKeyID switches server-side encryption from AES256 to aws:kms.
	KMSKeyID string
	// PublicBaseURL, when set, is used for artifact URLs instead of presigned GETs.
	PublicBaseURL string
}

// Store implements artifact.Store using Amazon S3.
type Store struct {
	client    api
	presign   presignAPI
	bucket    string
	prefix    string
	kmsKeyID  string
	publicURL string
	now       func() time.Time
}

// New creates a new S3-backed artifact store.
func New(ctx context.Context, region string, opts Options) (*Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return NewWithClient(client, s3.NewPresignClient(client), opts), nil
}

// NewWithClient builds a store around an existing client.
func NewWithClient(client api, presign presignAPI, opts Options) *Store {
	return &Store{
		client:    client,
		presign:   presign,
		bucket:    opts.Bucket,
		prefix:    normalizePrefix(opts.Prefix),
		kmsKeyID:  strings.TrimSpace(opts.KMSKeyID),
		publicURL: strings.TrimRight(strings.TrimSpace(opts.PublicBaseURL), "/"),
		now:       time.Now,
	}
}

// Save uploads the reader contents under a new resume name.
func (s *Store) Save(ctx context.Context, originalFilename string, r io.Reader) (artifact.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return artifact.Artifact{}, err
	}

	name, err := artifact.NewResumeName(s.now(), originalFilename)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("%w: name: %w", artifact.ErrStorage, err)
	}
	objectKey := applyPrefix(s.prefix, name)

	var sniff [512]byte
	n, readErr := io.ReadFull(r, sniff[:])
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		return artifact.Artifact{}, fmt.Errorf("%w: read sniff: %w", artifact.ErrStorage, readErr)
	}

	mimeType := http.DetectContentType(sniff[:n])

	body := io.MultiReader(bytes.NewReader(sniff[:n]), r)
	counter := &countingReader{r: body}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        counter,
		ContentType: aws.String(mimeType),
		// Refuse to overwrite an existing object with the same name.
		IfNoneMatch: aws.String("*"),
	}
	s.applyEncryption(input)

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return artifact.Artifact{}, fmt.Errorf("%w: s3 put object bucket=%s key=%s: %w", artifact.ErrStorage, s.bucket, objectKey, err)
	}

	return artifact.Artifact{Key: name, SizeBytes: counter.n, MimeType: mimeType}, nil
}

// Open downloads a stored artifact for reading.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := artifact.CleanKey(key)
	if err != nil {
		return nil, err
	}

	objectKey := applyPrefix(s.prefix, clean)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: s3 get object bucket=%s key=%s: %w", artifact.ErrStorage, s.bucket, objectKey, err)
	}
	return out.Body, nil
}

// SaveWithKey uploads data to a specific storage key.
func (s *Store) SaveWithKey(ctx context.Context, key string, contentType string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	clean, err := artifact.CleanKey(key)
	if err != nil {
		return 0, err
	}

	objectKey := applyPrefix(s.prefix, clean)
	counter := &countingReader{r: r}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        counter,
		ContentType: aws.String(contentType),
	}
	s.applyEncryption(input)

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return 0, fmt.Errorf("%w: s3 put object bucket=%s key=%s: %w", artifact.ErrStorage, s.bucket, objectKey, err)
	}
	return counter.n, nil
}

// Delete removes a stored artifact.
func (s *Store) Delete(ctx context.Context, key string) error {
	clean, err := artifact.CleanKey(key)
	if err != nil {
		return err
	}
	objectKey := applyPrefix(s.prefix, clean)
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}); err != nil {
		return fmt.Errorf("%w: s3 delete object bucket=%s key=%s: %w", artifact.ErrStorage, s.bucket, objectKey, err)
	}
	return nil
}

// List returns stored artifacts whose key (relative to the store prefix) starts with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]artifact.Object, error) {
	listPrefix := applyPrefix(s.prefix, prefix)
	if s.prefix != "" && prefix == "" {
		listPrefix = s.prefix + "/"
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(listPrefix),
	})

	var out []artifact.Object
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: s3 list objects bucket=%s prefix=%s: %w", artifact.ErrStorage, s.bucket, listPrefix, err)
		}
		for _, obj := range page.Contents {
			out = append(out, artifact.Object{
				Key:        stripPrefix(s.prefix, aws.ToString(obj.Key)),
				SizeBytes:  aws.ToInt64(obj.Size),
				ModifiedAt: aws.ToTime(obj.LastModified).UTC(),
			})
		}
	}
	return out, nil
}

// URL returns a public URL for key: the configured base URL when present,
// otherwise a short-lived presigned GET.
func (s *Store) URL(ctx context.Context, key string) (string, error) {
	clean, err := artifact.CleanKey(key)
	if err != nil {
		return "", err
	}
	objectKey := applyPrefix(s.prefix, clean)
	if s.publicURL != "" {
		return s.publicURL + "/" + objectKey, nil
	}
	if s.presign == nil {
		return "", errors.New("s3 presign client not configured")
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = presignExpires
	})
	if err != nil {
		return "", fmt.Errorf("%w: s3 presign bucket=%s key=%s: %w", artifact.ErrStorage, s.bucket, objectKey, err)
	}
	return req.URL, nil
}

func (s *Store) applyEncryption(input *s3.PutObjectInput) {
	if s.kmsKeyID != "" {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAwsKms
		input.SSEKMSKeyId = aws.String(s.kmsKeyID)
	} else {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAes256
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func normalizePrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

func applyPrefix(prefix, key string) string {
	cleanPrefix := strings.Trim(prefix, "/")
	cleanKey := strings.TrimLeft(key, "/")
	if cleanPrefix == "" {
		return cleanKey
	}
	if cleanKey == "" {
		return cleanPrefix
	}
	return cleanPrefix + "/" + cleanKey
}

func stripPrefix(prefix, objectKey string) string {
	if prefix == "" {
		return objectKey
	}
	return strings.TrimPrefix(objectKey, prefix+"/")
}

var _ artifact.Store = (*Store)(nil)
