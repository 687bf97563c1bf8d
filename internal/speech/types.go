package speech

import "context"

// SynthRequest contains parameters to synthesize one announcement.
type SynthRequest struct {
	AnnouncementID string
	Text           string
	Voice          string
}

// SynthChunk contains PCM data.
type SynthChunk struct {
	AnnouncementID string
	Sequence       int
	SampleRate     int
	Channels       int
	PCM            []byte
	Final          bool
}

// Synthesizer is the contract for producing audio. Implementations are
// swappable; the announcement core never sees which one is active.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthRequest) (<-chan SynthChunk, <-chan error)
}
