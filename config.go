// Copyright 2019 Lanikai Labs. All rights reserved.

package hosal

import (
	"encoding/json"
	"io/ioutil"

	"github.com/lanikai/hosal/internal/aes"

	"github.com/pkg/errors"
)

// Config contains the integration choices for a Device.
type Config struct {
	// What Acquire does while another operation owns the engine.
	LockPolicy LockPolicy `json:"lockPolicy"`

	// Number of expanded key schedules to keep after their operations
	// finish. Zero, the default, disables the cache so that round keys live
	// only as long as one operation.
	KeyCacheSize int `json:"keyCacheSize"`

	// Single-block core to drive. Defaults to crypto/aes.
	Cipher aes.CipherFunc `json:"-"`
}

// DefaultConfig blocks on a busy engine and keeps no key schedules.
func DefaultConfig() Config {
	return Config{
		LockPolicy: Blocking,
	}
}

// LoadConfig reads a JSON configuration file. Fields absent from the file
// keep their DefaultConfig values.
func LoadConfig(filePath string) (Config, error) {
	cfg := DefaultConfig()

	d, err := ioutil.ReadFile(filePath)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}

	if err := json.Unmarshal(d, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", filePath)
	}
	return cfg, cfg.validate()
}

func (cfg Config) validate() error {
	if cfg.KeyCacheSize < 0 {
		return errors.Errorf("negative key cache size %d", cfg.KeyCacheSize)
	}
	if cfg.LockPolicy != Blocking && cfg.LockPolicy != NonBlocking {
		return errors.Errorf("unknown lock policy %d", int(cfg.LockPolicy))
	}
	return nil
}
