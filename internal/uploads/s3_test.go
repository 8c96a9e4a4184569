package uploads

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockS3Client records PutObject calls for testing.
type mockS3Client struct {
	puts []*s3.PutObjectInput
	body []byte
	err  error
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.puts = append(m.puts, input)
	m.body, _ = io.ReadAll(input.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store_Put(t *testing.T) {
	mock := &mockS3Client{}
	store := NewS3Store(mock, "funnel-uploads", nil)
	store.now = func() time.Time { return time.Date(2026, 3, 4, 23, 0, 0, 0, time.UTC) }

	att, err := store.Put(context.Background(), "sess-1", "payment.png", "image/png", bytes.NewReader([]byte("png-bytes")))
	require.NoError(t, err)

	require.Len(t, mock.puts, 1)
	put := mock.puts[0]
	assert.Equal(t, "funnel-uploads", *put.Bucket)
	assert.Equal(t, "screenshots/2026/03/04/sess-1/payment.png", *put.Key)
	assert.Equal(t, "image/png", *put.ContentType)
	assert.Equal(t, int64(9), *put.ContentLength)
	assert.Equal(t, "png-bytes", string(mock.body))

	assert.Equal(t, "payment.png", att.Filename)
	assert.Equal(t, int64(9), att.Size)
	assert.Equal(t, "s3://funnel-uploads/screenshots/2026/03/04/sess-1/payment.png", att.Location)
}

func TestS3Store_Disabled(t *testing.T) {
	var nilStore *S3Store
	assert.False(t, nilStore.Enabled())

	store := NewS3Store(&mockS3Client{}, "", nil)
	assert.False(t, store.Enabled())
	_, err := store.Put(context.Background(), "s", "f.png", "", bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestS3Store_PutError(t *testing.T) {
	store := NewS3Store(&mockS3Client{err: errors.New("access denied")}, "bucket", nil)
	_, err := store.Put(context.Background(), "s", "f.png", "", bytes.NewReader([]byte("x")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestKey_SanitizesSegments(t *testing.T) {
	at := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "screenshots/2026/12/01/a_b/my_receipt_1_.jpg", Key(at, "a/b", "../my receipt (1).jpg"))
	assert.Equal(t, "screenshots/2026/12/01/unnamed/unnamed", Key(at, "", ""))
}

func TestS3Store_DefaultContentType(t *testing.T) {
	mock := &mockS3Client{}
	store := NewS3Store(mock, "bucket", nil)
	att, err := store.Put(context.Background(), "s", "blob", "", bytes.NewReader([]byte("x")))
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", att.ContentType)
	assert.Equal(t, "application/octet-stream", *mock.puts[0].ContentType)
}
