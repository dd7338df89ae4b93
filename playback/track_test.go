package playback

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestTrackID(t *testing.T) {
	t.Parallel()
	a := Track{Artist: "Boards of Canada", Name: "Roygbiv"}
	b := Track{Artist: "Boards of Canada", Name: "Roygbiv"}
	c := Track{Artist: "Boards of Canada", Name: "Olson"}

	assert.Equal(t, a.ID(), b.ID())
	assert.NotEqual(t, a.ID(), c.ID())
	// artist and name are kept apart so shifting text between them changes the ID
	assert.NotEqual(t, Track{Artist: "ab", Name: "c"}.ID(), Track{Artist: "a", Name: "bc"}.ID())
}

func TestFromTrack(t *testing.T) {
	t.Parallel()
	track := &Track{Artist: "Stereolab", Name: "French Disko"}

	if diff := cmp.Diff(Message(Playing{Track: *track}), FromTrack(track)); diff != "" {
		t.Fatalf("unexpected message (-want +got):\n%s", diff)
	}
	assert.Equal(t, Message(Idle{}), FromTrack(nil))
}

func TestMessagesCompareStructurally(t *testing.T) {
	t.Parallel()
	var last Message = Playing{Track: Track{Artist: "A", Name: "B"}}

	assert.True(t, last == Message(Playing{Track: Track{Artist: "A", Name: "B"}}))
	assert.False(t, last == Message(Playing{Track: Track{Artist: "A", Name: "C"}}))
	assert.False(t, last == Message(Idle{}))
}

func TestKind(t *testing.T) {
	t.Parallel()
	cases := map[string]Message{
		"playing":  Playing{},
		"idle":     Idle{},
		"shutdown": Shutdown{Graceful: true},
		"abort":    Shutdown{Graceful: false},
	}
	for want, msg := range cases {
		assert.Equal(t, want, Kind(msg))
	}
}
