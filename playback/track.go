package playback

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Track is a single piece of music reported by a listening service.
// Two tracks are the same track when both the artist and name match.
type Track struct {
	Artist string `json:"artist"`
	Name   string `json:"name"`
}

// ID returns a stable fingerprint for the track, used for logging and as the
// event ID on the status stream
func (t Track) ID() string {
	return fmt.Sprintf("track:%x", xxhash.Sum64String(t.Artist+"\x00"+t.Name))
}

func (t Track) String() string {
	return fmt.Sprintf("%q by %s", t.Name, t.Artist)
}
