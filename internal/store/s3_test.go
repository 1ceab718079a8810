package store

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ecomlisting-ai/internal/common/errors"
	"ecomlisting-ai/internal/common/logger"
)

// fakeS3 is an in-memory bucket. failPuts makes the next N PutObject calls
// fail transiently.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string][]byte
	puts     int
	failPuts int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prefix := aws.ToString(params.Prefix)
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "not found"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.puts++
	if f.failPuts > 0 {
		f.failPuts--
		return nil, &smithy.GenericAPIError{Code: "SlowDown", Message: "throttled"}
	}

	var data []byte
	if params.Body != nil {
		data, _ = io.ReadAll(params.Body)
	}
	f.objects[aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BackoffBase: time.Millisecond,
		sleep:       func(ctx context.Context, d time.Duration) error { return nil },
	}
}

func newTestStore(fake *fakeS3) *S3Store {
	return newS3StoreWithClient(fake, "test-bucket", fastPolicy(), logger.NewNoOpLogger())
}

// ==========================
// 1. Folders
// ==========================

func TestFindOrCreateFolder_CreatesMarkerOnce(t *testing.T) {
	fake := newFakeS3()
	st := newTestStore(fake)

	id, err := st.FindOrCreateFolder(context.Background(), "123_456", "outputs/")
	require.NoError(t, err)
	assert.Equal(t, "outputs/123_456/", id)
	assert.Contains(t, fake.objects, "outputs/123_456/")

	putsAfterCreate := fake.puts
	id2, err := st.FindOrCreateFolder(context.Background(), "123_456", "outputs/")
	require.NoError(t, err)
	assert.Equal(t, id, id2)
	assert.Equal(t, putsAfterCreate, fake.puts, "existing folder must not be recreated")
}

func TestFindOrCreateFolder_RootParent(t *testing.T) {
	st := newTestStore(newFakeS3())

	id, err := st.FindOrCreateFolder(context.Background(), "outputs", "")
	require.NoError(t, err)
	assert.Equal(t, "outputs/", id)
}

// ==========================
// 2. Files
// ==========================

func TestPut_Upsert(t *testing.T) {
	fake := newFakeS3()
	st := newTestStore(fake)
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, "k.mp4", []byte("v1"), "video/mp4", "outputs/k/"))
	require.NoError(t, st.Put(ctx, "k.mp4", []byte("v2 longer"), "video/mp4", "outputs/k/"))

	got, err := st.Get(ctx, "outputs/k/k.mp4")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2 longer"), got)
}

func TestList_SkipsMarkerAndFiltersMime(t *testing.T) {
	fake := newFakeS3()
	st := newTestStore(fake)
	ctx := context.Background()

	folder, err := st.FindOrCreateFolder(ctx, "k", "outputs/")
	require.NoError(t, err)
	require.NoError(t, st.Put(ctx, "k.mp4", []byte("vid"), "video/mp4", folder))
	require.NoError(t, st.Put(ctx, "k_blog.txt", []byte("blog"), "text/plain", folder))
	require.NoError(t, st.Put(ctx, "k_title.txt", []byte("title"), "text/plain", folder))

	all, err := st.List(ctx, folder, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	texts, err := st.List(ctx, folder, "text/")
	require.NoError(t, err)
	require.Len(t, texts, 2)
	for _, f := range texts {
		assert.Equal(t, "text/plain", f.MimeType)
	}

	videos, err := st.List(ctx, folder, "video")
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "k.mp4", videos[0].Name)
	assert.Equal(t, folder+"k.mp4", videos[0].ID)
}

func TestGet_MissingIsPermanent(t *testing.T) {
	st := newTestStore(newFakeS3())

	_, err := st.Get(context.Background(), "outputs/nothing.mp4")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeStorePermanent, apperrors.CodeOf(err))
}

// ==========================
// 3. Retry Integration
// ==========================

func TestPut_RetriesThrottling(t *testing.T) {
	fake := newFakeS3()
	fake.failPuts = 2
	st := newTestStore(fake)

	err := st.Put(context.Background(), "k.mp4", []byte("vid"), "video/mp4", "outputs/k/")

	require.NoError(t, err)
	assert.Equal(t, 3, fake.puts)
}

func TestPut_ExhaustedRetriesSurfaceTransient(t *testing.T) {
	fake := newFakeS3()
	fake.failPuts = 10
	st := newTestStore(fake)

	err := st.Put(context.Background(), "k.mp4", []byte("vid"), "video/mp4", "outputs/k/")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeStoreTransient, apperrors.CodeOf(err))
	assert.Equal(t, 3, fake.puts)
}
