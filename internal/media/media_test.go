package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "image.png", sanitizeFileName(""))
	assert.Equal(t, "image.png", sanitizeFileName("/"))
	assert.Equal(t, "cerita_anak_.png", sanitizeFileName("../cerita anak!.png"))
}

func TestObjectKey(t *testing.T) {
	now := time.Unix(1700000000, 0)
	key := objectKey("/stories/", now, "a.png")
	assert.True(t, strings.HasPrefix(key, "stories/1700000000_"), key)
	assert.True(t, strings.HasSuffix(key, "_a.png"), key)

	key = objectKey("", now, "a.png")
	assert.True(t, strings.HasPrefix(key, "1700000000_"), key)
}

func TestNewCOSUploaderRequiresCredentials(t *testing.T) {
	_, err := NewCOSUploader(COSConfig{PublicDomain: "https://cdn.example.com", Bucket: "b"})
	require.Error(t, err)

	_, err = NewCOSUploader(COSConfig{SecretID: "id", SecretKey: "key", Bucket: "b"})
	require.Error(t, err)

	_, err = NewCOSUploader(COSConfig{SecretID: "id", SecretKey: "key", PublicDomain: "https://cdn.example.com"})
	require.Error(t, err)
}

func TestCOSUploaderPutsObject(t *testing.T) {
	var (
		mu          sync.Mutex
		gotMethod   string
		gotPath     string
		gotType     string
		gotBody     string
		gotAuthHead string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotMethod, gotPath, gotType, gotBody = r.Method, r.URL.Path, r.Header.Get("Content-Type"), string(body)
		gotAuthHead = r.Header.Get("Authorization")
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	u, err := NewCOSUploader(COSConfig{
		SecretID:     "id",
		SecretKey:    "key",
		BucketURL:    server.URL,
		PublicDomain: "https://cdn.example.com/",
		Prefix:       "stories",
	})
	require.NoError(t, err)
	u.now = func() time.Time { return time.Unix(1700000000, 0) }

	url, err := u.Upload(context.Background(), []byte("png-bytes"), "kancil.png", "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/stories/1700000000_"), url)
	assert.True(t, strings.HasSuffix(url, "_kancil.png"), url)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, strings.TrimPrefix(url, "https://cdn.example.com"), gotPath)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "png-bytes", gotBody)
	assert.NotEmpty(t, gotAuthHead)
}

func TestCOSUploaderRejectsEmptyData(t *testing.T) {
	u, err := NewCOSUploader(COSConfig{SecretID: "id", SecretKey: "key", Bucket: "b", PublicDomain: "https://cdn.example.com"})
	require.NoError(t, err)
	_, err = u.Upload(context.Background(), nil, "a.png", "image/png")
	require.ErrorIs(t, err, ErrEmptyImage)
}
