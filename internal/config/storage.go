package config

// StorageConfig points at the S3 compatible bucket holding warranty
// attachments.  An empty Endpoint disables attachment resolution.
type StorageConfig struct {
    Endpoint  string
    AccessKey string
    SecretKey string
    Bucket    string
    PublicURL string
    UseSSL    bool
}

func LoadStorageConfig() StorageConfig {
    return StorageConfig{
        Endpoint:  envStr("MINIO_ENDPOINT", ""),
        AccessKey: envStr("MINIO_ACCESS_KEY", ""),
        SecretKey: envStr("MINIO_SECRET_KEY", ""),
        Bucket:    envStr("MINIO_BUCKET", "warranty-attachments"),
        PublicURL: envStr("MINIO_PUBLIC_URL", ""),
        UseSSL:    envBool("MINIO_USE_SSL", false),
    }
}
