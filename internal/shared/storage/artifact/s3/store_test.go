package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickapply-backend/internal/shared/storage/artifact"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "resume-1-abc.pdf", want: "resume-1-abc.pdf"},
		{name: "simple prefix", prefix: "root", key: "resume-1-abc.pdf", want: "root/resume-1-abc.pdf"},
		{name: "prefix trailing slash", prefix: "root/", key: "resume-1-abc.pdf", want: "root/resume-1-abc.pdf"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/summaries/a.pdf", want: "root/summaries/a.pdf"},
		{name: "nested prefix", prefix: "root/sub", key: "resume-1-abc.pdf", want: "root/sub/resume-1-abc.pdf"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestSaveUploadsUnderPrefixWithEncryption(t *testing.T) {
	fake := newFakeS3()
	store := NewWithClient(fake, nil, Options{Bucket: "resumes", Prefix: "/uploads/", PublicBaseURL: "https://cdn.example.com/"})

	saved, err := store.Save(context.Background(), "cv.pdf", strings.NewReader("%PDF-1.7 body"))
	require.NoError(t, err)
	assert.True(t, artifact.IsResumeKey(saved.Key))
	assert.Equal(t, int64(len("%PDF-1.7 body")), saved.SizeBytes)

	put := fake.lastPut
	require.NotNil(t, put)
	assert.Equal(t, "uploads/"+saved.Key, aws.ToString(put.Key))
	assert.Equal(t, s3types.ServerSideEncryptionAes256, put.ServerSideEncryption)
	assert.Equal(t, "*", aws.ToString(put.IfNoneMatch))

	rc, err := store.Open(context.Background(), saved.Key)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 body", string(got))

	url, err := store.URL(context.Background(), saved.Key)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/uploads/"+saved.Key, url)
}

func TestSaveWrapsPutFailureAsStorageError(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("access denied")
	store := NewWithClient(fake, nil, Options{Bucket: "resumes", KMSKeyID: "kms-1"})

	_, err := store.Save(context.Background(), "cv.pdf", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, artifact.ErrStorage))
	assert.Equal(t, s3types.ServerSideEncryptionAwsKms, fake.lastPut.ServerSideEncryption)
}

func TestURLFallsBackToPresign(t *testing.T) {
	store := NewWithClient(newFakeS3(), fakePresigner{}, Options{Bucket: "resumes", Prefix: "p"})
	url, err := store.URL(context.Background(), "resume-1-abc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example.com/resumes/p/resume-1-abc.pdf", url)
}

func TestListStripsPrefix(t *testing.T) {
	fake := newFakeS3()
	store := NewWithClient(fake, nil, Options{Bucket: "resumes", Prefix: "p"})
	ctx := context.Background()

	_, err := store.SaveWithKey(ctx, "summaries/a.pdf", "application/pdf", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = store.Save(ctx, "cv.pdf", strings.NewReader("b"))
	require.NoError(t, err)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	summaries, err := store.List(ctx, "summaries/")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "summaries/a.pdf", summaries[0].Key)

	require.NoError(t, store.Delete(ctx, "summaries/a.pdf"))
	summaries, err = store.List(ctx, "summaries/")
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	lastPut *s3.PutObjectInput
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPut = params
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, errors.New("no such key")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	now := time.Now()
	for key, data := range f.objects {
		if !strings.HasPrefix(key, aws.ToString(params.Prefix)) {
			continue
		}
		out.Contents = append(out.Contents, s3types.Object{
			Key:          aws.String(key),
			Size:         aws.Int64(int64(len(data))),
			LastModified: aws.Time(now),
		})
	}
	return out, nil
}

type fakePresigner struct{}

func (fakePresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return &v4.PresignedHTTPRequest{URL: "https://signed.example.com/" + aws.ToString(params.Bucket) + "/" + aws.ToString(params.Key)}, nil
}
