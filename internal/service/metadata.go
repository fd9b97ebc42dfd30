package service

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/dhowden/tag"
)

// ErrNoCover is returned by Cover when the metadata has no embedded picture.
var ErrNoCover = errors.New("no embedded cover art")

// Metadata holds the tag fields shown in the now-playing panel.
type Metadata struct {
	Title    string
	Artist   string
	Album    string
	Year     int
	Format   string
	CoverArt []byte
}

// ReadMetadata parses ID3, MP4, FLAC or Ogg tags from data.
func ReadMetadata(data []byte) (Metadata, error) {
	m, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read tags: %w", err)
	}

	meta := Metadata{
		Title:  m.Title(),
		Artist: m.Artist(),
		Album:  m.Album(),
		Year:   m.Year(),
		Format: string(m.FileType()),
	}
	if pic := m.Picture(); pic != nil {
		meta.CoverArt = pic.Data
	}
	return meta, nil
}

// Cover decodes the embedded cover art.
func (m Metadata) Cover() (image.Image, error) {
	if len(m.CoverArt) == 0 {
		return nil, ErrNoCover
	}
	img, _, err := image.Decode(bytes.NewReader(m.CoverArt))
	if err != nil {
		return nil, fmt.Errorf("failed to decode cover art: %w", err)
	}
	return img, nil
}
