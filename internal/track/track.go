// Package track defines the track records the player works with and the
// search filter that derives the visible list from the catalog.
package track

// Track is a single playable entry. Its identity is its position in the list
// it was taken from.
type Track struct {
	Title  string `yaml:"title" json:"title"`
	Artist string `yaml:"artist" json:"artist"`
	URL    string `yaml:"url" json:"url"`
}

var builtin = []Track{
	{Title: "Star Wars", Artist: "George Lucas", URL: "https://www2.cs.uic.edu/~i101/SoundFiles/StarWars60.wav"},
	{Title: "Imperial March", Artist: "Darth Vader", URL: "https://www2.cs.uic.edu/~i101/SoundFiles/ImperialMarch60.wav"},
	{Title: "Pink Panther", Artist: "Pink Panther", URL: "https://www2.cs.uic.edu/~i101/SoundFiles/PinkPanther30.wav"},
	{Title: "Cantina Band", Artist: "CantinaBand60", URL: "https://www2.cs.uic.edu/~i101/SoundFiles/CantinaBand60.wav"},
	{Title: "Fanfare", Artist: "Fanfare60", URL: "https://www2.cs.uic.edu/~i101/SoundFiles/Fanfare60.wav"},
	{Title: "Baby Elephant Walk", Artist: "BabyElephantWalk60", URL: "https://www2.cs.uic.edu/~i101/SoundFiles/BabyElephantWalk60.wav"},
	{Title: "Star Wars 3", Artist: "StarWars3", URL: "https://www2.cs.uic.edu/~i101/SoundFiles/StarWars3.wav"},
}

// DefaultCatalog returns a copy of the built-in catalog.
func DefaultCatalog() []Track {
	result := make([]Track, len(builtin))
	copy(result, builtin)
	return result
}

// DisplayName returns "Artist - Title", or just the title when the artist is unknown.
func (t Track) DisplayName() string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Artist + " - " + t.Title
}

// IndexOf returns the position of the first track with the given URL, or -1.
func IndexOf(tracks []Track, url string) int {
	for i, t := range tracks {
		if t.URL == url {
			return i
		}
	}
	return -1
}

// IndexByTitle returns the position of the first track with the given title, or -1.
func IndexByTitle(tracks []Track, title string) int {
	for i, t := range tracks {
		if t.Title == title {
			return i
		}
	}
	return -1
}
