package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/oklog/ulid/v2"
)

const defaultPublicHost = "https://storage.googleapis.com"

var allowedVideoContentTypes = map[string]string{
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"video/quicktime": ".mov",
}

// Uploader writes item videos to a Cloud Storage bucket and derives the
// public URL stored on the catalog item.
type Uploader struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
	newObjectID   func() string
}

// UploaderOption customises Uploader behaviour.
type UploaderOption func(*Uploader)

// WithPublicBaseURL overrides the host used to build public object URLs,
// typically a CDN domain fronting the bucket.
func WithPublicBaseURL(base string) UploaderOption {
	return func(u *Uploader) {
		if trimmed := strings.TrimRight(strings.TrimSpace(base), "/"); trimmed != "" {
			u.publicBaseURL = trimmed
		}
	}
}

// WithObjectIDGenerator injects the object name generator, used by tests.
func WithObjectIDGenerator(gen func() string) UploaderOption {
	return func(u *Uploader) {
		if gen != nil {
			u.newObjectID = gen
		}
	}
}

// NewUploader constructs an Uploader bound to the videos bucket.
func NewUploader(client *storage.Client, bucket string, opts ...UploaderOption) (*Uploader, error) {
	if client == nil {
		return nil, errors.New("storage uploader: client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("storage uploader: bucket is required")
	}

	uploader := &Uploader{
		client:        client,
		bucket:        bucket,
		publicBaseURL: defaultPublicHost + "/" + bucket,
		newObjectID: func() string {
			return ulid.Make().String()
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(uploader)
		}
	}
	return uploader, nil
}

// UploadVideo streams the video into the bucket under a generated object name
// and returns the public URL. The partner id scopes the object path so one
// partner's uploads never collide with another's.
func (u *Uploader) UploadVideo(ctx context.Context, partnerID string, contentType string, body io.Reader) (string, error) {
	if u == nil || u.client == nil {
		return "", errors.New("storage uploader: not initialised")
	}
	partnerID = strings.TrimSpace(partnerID)
	if partnerID == "" {
		return "", errors.New("storage uploader: partner id is required")
	}
	ext, ok := allowedVideoContentTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", fmt.Errorf("storage uploader: content type %q not allowed", contentType)
	}
	if body == nil {
		return "", errors.New("storage uploader: body is required")
	}

	object := path.Join("videos", partnerID, u.newObjectID()+ext)

	writer := u.client.Bucket(u.bucket).Object(object).NewWriter(ctx)
	writer.ContentType = strings.ToLower(strings.TrimSpace(contentType))
	writer.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(writer, body); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("storage uploader: write object %s: %w", object, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("storage uploader: finalise object %s: %w", object, err)
	}

	return u.publicBaseURL + "/" + object, nil
}
