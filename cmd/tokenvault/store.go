package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MrEthical07/tokenvault/securestore"
	"github.com/redis/go-redis/v9"
)

type storeConfig struct {
	Backend string `mapstructure:"backend"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
		Prefix   string `mapstructure:"prefix"`
	} `mapstructure:"redis"`

	File struct {
		Path        string `mapstructure:"path"`
		Passphrase  string `mapstructure:"passphrase"`
		KDFMemoryKB uint32 `mapstructure:"kdf_memory_kb"`
		KDFTime     uint32 `mapstructure:"kdf_time"`
		KDFThreads  uint8  `mapstructure:"kdf_threads"`
	} `mapstructure:"file"`
}

func openStore(cfg storeConfig, namespace string) (securestore.Store, error) {
	switch cfg.Backend {
	case "", "keyring":
		if namespace == "" {
			namespace = "tokenvault"
		}
		return securestore.NewKeyringStore(namespace), nil
	case "file":
		if cfg.File.Passphrase == "" {
			return nil, errors.New("file store requires a passphrase (set TOKENVAULT_STORE_FILE_PASSPHRASE)")
		}
		params := securestore.KDFParams{
			Memory:      cfg.File.KDFMemoryKB,
			Time:        cfg.File.KDFTime,
			Parallelism: cfg.File.KDFThreads,
		}
		return securestore.NewFileStore(cfg.File.Path, cfg.File.Passphrase, params)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return securestore.NewRedisStore(client, cfg.Redis.Prefix), nil
	case "memory":
		return securestore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func defaultFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".tokenvault.vault"
	}
	return filepath.Join(dir, "tokenvault", "tokens.vault")
}
