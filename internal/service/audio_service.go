// Package service provides the business logic layer for loading track audio.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/glebovdev/trackdeck/internal/cache"
	"github.com/rs/zerolog/log"
)

// Fetcher downloads audio bytes for a URL.
type Fetcher interface {
	FetchAudio(ctx context.Context, url string) ([]byte, error)
}

// AudioCache stores downloaded audio between sessions.
type AudioCache interface {
	GetAudio(url string) ([]byte, bool)
	SaveAudio(url string, data []byte) error
}

// AudioService resolves track URLs to audio bytes, preferring the disk cache,
// and remembers tag metadata for everything it loads.
type AudioService struct {
	fetcher    Fetcher
	audioCache AudioCache
	mu         sync.RWMutex
	metadata   map[string]Metadata
	saves      sync.WaitGroup
}

// NewAudioService creates a new AudioService. When useCache is false, or the
// cache directory is unavailable, every load goes to the network.
func NewAudioService(fetcher Fetcher, useCache bool) *AudioService {
	s := &AudioService{
		fetcher:  fetcher,
		metadata: make(map[string]Metadata),
	}

	if !useCache {
		return s
	}

	audioCache, err := cache.NewCache()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize audio cache, audio will not be cached")
		return s
	}

	go func() {
		if err := audioCache.CleanExpired(); err != nil {
			log.Debug().Err(err).Msg("Failed to clean expired cache")
		}
	}()

	s.audioCache = audioCache
	return s
}

// Load returns the audio bytes for url.
func (s *AudioService) Load(ctx context.Context, url string) ([]byte, error) {
	if s.audioCache != nil {
		if data, ok := s.audioCache.GetAudio(url); ok {
			log.Debug().Str("url", url).Msg("Audio loaded from cache")
			s.rememberMetadata(url, data)
			return data, nil
		}
	}

	data, err := s.fetcher.FetchAudio(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", url, err)
	}

	s.rememberMetadata(url, data)

	if s.audioCache != nil {
		s.saves.Add(1)
		go func() {
			defer s.saves.Done()
			if err := s.audioCache.SaveAudio(url, data); err != nil {
				log.Debug().Err(err).Str("url", url).Msg("Failed to cache audio")
			} else {
				log.Debug().Str("url", url).Msg("Audio cached")
			}
		}()
	}

	return data, nil
}

// Metadata returns the tags read from the audio last loaded for url.
func (s *AudioService) Metadata(url string) (Metadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.metadata[url]
	return m, ok
}

// Wait blocks until pending background cache writes have finished.
func (s *AudioService) Wait() {
	s.saves.Wait()
}

func (s *AudioService) rememberMetadata(url string, data []byte) {
	m, err := ReadMetadata(data)
	if err != nil {
		log.Debug().Err(err).Str("url", url).Msg("No tag metadata")
		return
	}

	s.mu.Lock()
	s.metadata[url] = m
	s.mu.Unlock()
}
