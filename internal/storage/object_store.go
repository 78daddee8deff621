// Package storage resolves uploaded attachment references against MinIO /
// S3 compatible object storage.  Uploading itself happens elsewhere; the
// core only stores the durable URLs produced here.
package storage

import (
    "context"
    "fmt"
    "net/url"
    "strings"
    "time"

    "github.com/minio/minio-go/v7"
    "github.com/minio/minio-go/v7/pkg/credentials"

    "github.com/iliyamo/warranty-claims/internal/apperr"
)

// MinioStore implements the orchestrator's FileStore.
type MinioStore struct {
    client  *minio.Client
    bucket  string
    baseURL string
}

// NewMinioStore connects to MinIO and ensures the bucket exists.  baseURL
// is the public origin attachments are served from; when empty the client
// endpoint is used.
func NewMinioStore(endpoint, accessKey, secretKey, bucket, baseURL string, useSSL bool) (*MinioStore, error) {
    client, err := minio.New(endpoint, &minio.Options{
        Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
        Secure: useSSL,
    })
    if err != nil {
        return nil, fmt.Errorf("init minio client: %w", err)
    }
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    exists, err := client.BucketExists(ctx, bucket)
    if err != nil {
        return nil, fmt.Errorf("check bucket: %w", err)
    }
    if !exists {
        if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
            return nil, fmt.Errorf("create bucket: %w", err)
        }
    }
    if baseURL == "" {
        baseURL = client.EndpointURL().String()
    }
    return &MinioStore{client: client, bucket: bucket, baseURL: baseURL}, nil
}

// Resolve turns an attachment reference into a durable URL.  Absolute
// http(s) URLs are returned unchanged; anything else is treated as an
// object key that must exist in the bucket.
func (m *MinioStore) Resolve(ctx context.Context, ref string) (string, error) {
    ref = strings.TrimSpace(ref)
    if isAbsoluteURL(ref) {
        return ref, nil
    }
    key, err := objectKey(ref)
    if err != nil {
        return "", err
    }
    if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
        if minio.ToErrorResponse(err).Code == "NoSuchKey" {
            return "", apperr.Invalid("attachments", "unknown attachment "+key)
        }
        return "", fmt.Errorf("stat object: %w", err)
    }
    return objectURL(m.baseURL, m.bucket, key), nil
}

func isAbsoluteURL(ref string) bool {
    u, err := url.Parse(ref)
    return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// objectKey validates a relative reference.
func objectKey(ref string) (string, error) {
    key := strings.TrimPrefix(ref, "/")
    if key == "" || strings.Contains(key, "..") {
        return "", apperr.Invalid("attachments", "invalid attachment reference")
    }
    return key, nil
}

func objectURL(base, bucket, key string) string {
    segs := strings.Split(key, "/")
    for i, s := range segs {
        segs[i] = url.PathEscape(s)
    }
    return strings.TrimRight(base, "/") + "/" + bucket + "/" + strings.Join(segs, "/")
}
