package protocol

import "time"

// AnnouncementEvent is broadcast whenever the operator plays a message,
// whether a route step, a repeat, or a preset.
type AnnouncementEvent struct {
	ID        string    `json:"id"`
	RouteID   string    `json:"route_id,omitempty"`
	RouteName string    `json:"route_name,omitempty"`
	Kind      string    `json:"kind"`
	Station   string    `json:"station,omitempty"`
	Text      string    `json:"text"`
	Repeat    bool      `json:"repeat,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SpeechRequest asks the speech service to render a message.
type SpeechRequest struct {
	AnnouncementID string `json:"announcement_id"`
	Text           string `json:"text"`
	Voice          string `json:"voice"`
	Target         string `json:"target"`
}

// AudioChunk carries synthesized PCM toward playback endpoints.
type AudioChunk struct {
	AnnouncementID string `json:"announcement_id"`
	Target         string `json:"target"`
	SampleRate     int    `json:"sample_rate"`
	Channels       int    `json:"channels"`
	Sequence       int    `json:"sequence"`
	PCM            []byte `json:"pcm"`
	Final          bool   `json:"final"`
}

// SpeechStatus reports synthesis completion.
type SpeechStatus struct {
	AnnouncementID string    `json:"announcement_id"`
	Target         string    `json:"target"`
	Completed      bool      `json:"completed"`
	Timestamp      time.Time `json:"timestamp"`
}

const (
	SubjectAnnouncement  = "ansage.message"
	SubjectSpeechRequest = "ansage.speech.request"
	SubjectSpeechAudio   = "ansage.speech.audio"
	SubjectSpeechDone    = "ansage.speech.done"

	SubjectSpeakerAnnounce        = "ctrl.speaker.announce"
	SubjectSpeakerHeartbeatPrefix = "ctrl.speaker.heartbeat"
)
