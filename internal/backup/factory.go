package backup

import (
	"context"
	"fmt"

	"pm-go/internal/config"
	"pm-go/internal/pm"
)

// NewTargetFromConfig creates a BackupTarget based on the backup config type.
func NewTargetFromConfig(ctx context.Context, cfg config.BackupConfig) (pm.BackupTarget, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryTarget(), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem backup target requires fs_root to be set")
		}
		return NewFileSystemTarget(cfg.FSRoot)
	case "s3":
		return NewS3Target(ctx, S3Config{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			PathStyle:       cfg.S3PathStyle,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown backup type: %s", cfg.Type)
	}
}
