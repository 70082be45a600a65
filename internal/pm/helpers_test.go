package pm_test

import (
	"path/filepath"

	"pm-go/internal/config"
)

func configForKeys(dir string) config.EncryptionConfig {
	return config.EncryptionConfig{
		Type:           "age",
		PublicKeyPath:  filepath.Join(dir, "pm.pub"),
		PrivateKeyPath: filepath.Join(dir, "pm.key"),
	}
}
