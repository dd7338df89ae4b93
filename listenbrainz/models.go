package listenbrainz

type PlayingNowResponse struct {
	Payload Payload `json:"payload"`
}

type Payload struct {
	Count      int      `json:"count"`
	PlayingNow bool     `json:"playing_now"`
	UserID     string   `json:"user_id"`
	Listens    []Listen `json:"listens"`
}

type Listen struct {
	PlayingNow    bool          `json:"playing_now"`
	TrackMetadata TrackMetadata `json:"track_metadata"`
}

type TrackMetadata struct {
	ArtistName  string `json:"artist_name"`
	TrackName   string `json:"track_name"`
	ReleaseName string `json:"release_name,omitempty"`
}

type ErrorResponse struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}
