package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	cos "github.com/tencentyun/cos-go-sdk-v5"
)

const defaultCOSRegion = "ap-jakarta"

type COSConfig struct {
	SecretID  string
	SecretKey string
	Bucket    string
	Region    string
	// BucketURL overrides the URL derived from Bucket and Region.
	BucketURL string
	// PublicDomain is the base of the returned URLs, usually a CDN in front of the bucket.
	PublicDomain string
	Prefix       string
	Timeout      time.Duration
}

// COSUploader writes objects to a Tencent Cloud COS bucket.
type COSUploader struct {
	client       *cos.Client
	publicDomain string
	prefix       string
	now          func() time.Time
}

func NewCOSUploader(cfg COSConfig) (*COSUploader, error) {
	secretID := strings.TrimSpace(cfg.SecretID)
	secretKey := strings.TrimSpace(cfg.SecretKey)
	if secretID == "" || secretKey == "" {
		return nil, errors.New("cos uploader: secret id and key are required")
	}
	publicDomain := strings.TrimRight(strings.TrimSpace(cfg.PublicDomain), "/")
	if publicDomain == "" {
		return nil, errors.New("cos uploader: public domain is required")
	}

	rawURL := strings.TrimSpace(cfg.BucketURL)
	if rawURL == "" {
		bucket := strings.TrimSpace(cfg.Bucket)
		if bucket == "" {
			return nil, errors.New("cos uploader: bucket is required")
		}
		region := strings.TrimSpace(cfg.Region)
		if region == "" {
			region = defaultCOSRegion
		}
		rawURL = fmt.Sprintf("https://%s.cos.%s.myqcloud.com", bucket, region)
	}
	bucketURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("cos uploader: bucket url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := cos.NewClient(&cos.BaseURL{BucketURL: bucketURL}, &http.Client{
		Timeout: timeout,
		Transport: &cos.AuthorizationTransport{
			SecretID:  secretID,
			SecretKey: secretKey,
		},
	})
	return &COSUploader{
		client:       client,
		publicDomain: publicDomain,
		prefix:       cfg.Prefix,
		now:          time.Now,
	}, nil
}

func (u *COSUploader) Upload(ctx context.Context, data []byte, fileName string, contentType string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}
	key := objectKey(u.prefix, u.now(), fileName)
	opt := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{
			ContentType: contentType,
		},
	}
	if _, err := u.client.Object.Put(ctx, key, bytes.NewReader(data), opt); err != nil {
		return "", fmt.Errorf("cos put %s: %w", key, err)
	}
	return u.publicDomain + "/" + key, nil
}
