// Package cache provides disk caching of downloaded track audio.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultExpiry is how long cached audio is valid (7 days).
	DefaultExpiry = 7 * 24 * time.Hour
	// AudioSubdir is the subdirectory for cached audio files.
	AudioSubdir = "audio"
	// AppName is used for the cache directory name.
	AppName = "trackdeck"

	audioExt = ".bin"
)

// Cache manages disk-based caching of track audio, keyed by source URL.
type Cache struct {
	baseDir string
	expiry  time.Duration
}

// NewCache creates a new Cache instance with the default expiry.
func NewCache() (*Cache, error) {
	cacheDir, err := GetCacheDir()
	if err != nil {
		return nil, err
	}

	return &Cache{
		baseDir: cacheDir,
		expiry:  DefaultExpiry,
	}, nil
}

// GetCacheDir returns the platform-specific cache directory for the application.
func GetCacheDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user cache directory: %w", err)
	}

	cacheDir := filepath.Join(userCacheDir, AppName)
	return cacheDir, nil
}

func (c *Cache) ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

func hashURL(url string) string {
	hash := md5.Sum([]byte(url))
	return hex.EncodeToString(hash[:])
}

func (c *Cache) audioPath(url string) string {
	return filepath.Join(c.baseDir, AudioSubdir, hashURL(url)+audioExt)
}

// GetAudio returns the cached bytes for url. Expired entries are removed and
// reported as a miss.
func (c *Cache) GetAudio(url string) ([]byte, bool) {
	audioPath := c.audioPath(url)

	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, false
	}

	if time.Since(info.ModTime()) > c.expiry {
		if err := os.Remove(audioPath); err != nil {
			log.Debug().Err(err).Str("file", audioPath).Msg("Failed to remove expired cache file")
		}
		return nil, false
	}

	data, err := os.ReadFile(audioPath)
	if err != nil || len(data) == 0 {
		return nil, false
	}

	return data, true
}

// SaveAudio stores data in the cache, keyed by its URL. The file is written
// to a temp file first so readers never see a partial entry.
func (c *Cache) SaveAudio(url string, data []byte) error {
	audioDir := filepath.Join(c.baseDir, AudioSubdir)

	if err := c.ensureDir(audioDir); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(audioDir, ".audio-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	if err := os.Rename(tmpPath, c.audioPath(url)); err != nil {
		return fmt.Errorf("failed to rename cache file: %w", err)
	}

	tmpPath = ""
	return nil
}

// CleanExpired removes cache files older than the expiry duration.
func (c *Cache) CleanExpired() error {
	audioDir := filepath.Join(c.baseDir, AudioSubdir)

	entries, err := os.ReadDir(audioDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	now := time.Now()
	var removed, failed int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			log.Debug().Err(err).Str("file", entry.Name()).Msg("Failed to get file info")
			continue
		}

		if now.Sub(info.ModTime()) > c.expiry {
			filePath := filepath.Join(audioDir, entry.Name())
			if err := os.Remove(filePath); err != nil {
				log.Debug().Err(err).Str("file", filePath).Msg("Failed to remove expired cache file")
				failed++
			} else {
				removed++
			}
		}
	}

	if removed > 0 || failed > 0 {
		log.Debug().Int("removed", removed).Int("failed", failed).Msg("Cache cleanup completed")
	}

	return nil
}
