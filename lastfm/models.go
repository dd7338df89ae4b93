package lastfm

import (
	"bytes"
	"encoding/json"
)

type RecentTracksResponse struct {
	RecentTracks RecentTracks `json:"recenttracks"`
}

type RecentTracks struct {
	Track TrackList `json:"track"`
}

type Track struct {
	Artist Text       `json:"artist"`
	Name   string     `json:"name"`
	Album  Text       `json:"album"`
	Attr   *TrackAttr `json:"@attr,omitempty"`
}

type Text struct {
	MBID string `json:"mbid"`
	Text string `json:"#text"`
}

type TrackAttr struct {
	NowPlaying string `json:"nowplaying"`
}

func (t Track) NowPlaying() bool {
	return t.Attr != nil && t.Attr.NowPlaying == "true"
}

// TrackList is always a list of tracks once decoded. Last.fm sends a bare
// object instead of an array when there is only a single entry.
type TrackList []Track

func (l *TrackList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '{' {
		var track Track
		if err := json.Unmarshal(data, &track); err != nil {
			return err
		}
		*l = TrackList{track}
		return nil
	}
	var tracks []Track
	if err := json.Unmarshal(data, &tracks); err != nil {
		return err
	}
	*l = tracks
	return nil
}

// ErrorResponse is the body Last.fm returns alongside a failure
type ErrorResponse struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}
