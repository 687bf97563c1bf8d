package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ansagelabs/ansage-core/internal/bus"
	"github.com/ansagelabs/ansage-core/internal/config"
	"github.com/ansagelabs/ansage-core/internal/protocol"
	"github.com/nats-io/nats.go"
)

// Service renders speech requests from the bus into audio chunks. It is
// the only component aware of which synthesizer backs speech output.
type Service struct {
	cfg    config.SpeechConfig
	bus    *bus.Client
	synth  Synthesizer
	sub    *nats.Subscription
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewSynthesizer selects the configured synthesis strategy.
func NewSynthesizer(cfg config.SpeechConfig) (Synthesizer, error) {
	switch cfg.Mode {
	case "mock":
		return NewMockSynth(cfg.SampleRate, cfg.Channels), nil
	case "exec":
		return NewExecSynth(cfg.Command, cfg.SampleRate, cfg.Channels)
	default:
		return nil, fmt.Errorf("unsupported speech mode %q", cfg.Mode)
	}
}

func NewService(parent context.Context, cfg config.SpeechConfig, busClient *bus.Client, synth Synthesizer, log *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	return &Service{
		cfg:    cfg,
		bus:    busClient,
		synth:  synth,
		ctx:    ctx,
		cancel: cancel,
		logger: log.With(slog.String("component", "speech-service")),
	}
}

func (s *Service) Start() error {
	if !s.cfg.Enabled {
		return nil
	}
	sub, err := s.bus.Conn().Subscribe(protocol.SubjectSpeechRequest, s.handleRequest)
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

func (s *Service) Close() {
	s.cancel()
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	s.wg.Wait()
}

func (s *Service) Healthy() bool { return !s.cfg.Enabled || s.sub != nil }

func (s *Service) handleRequest(msg *nats.Msg) {
	var req protocol.SpeechRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("failed to decode speech request", slogError(err))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(s.ctx, 45*time.Second)
		defer cancel()

		chunks, errs := s.synth.Synthesize(ctx, SynthRequest{
			AnnouncementID: req.AnnouncementID,
			Text:           req.Text,
			Voice:          req.Voice,
		})
		sequence := 0
		for {
			select {
			case chunk, ok := <-chunks:
				if !ok {
					chunks = nil
					continue
				}
				chunk.Sequence = sequence
				sequence++
				s.publishChunk(req, chunk)
			case err, ok := <-errs:
				if ok && err != nil {
					s.logger.Warn("speech synthesis error", slogError(err))
				}
				errs = nil
			case <-ctx.Done():
				s.logger.Warn("speech synthesis cancelled", slogError(ctx.Err()))
				return
			}
			if chunks == nil && errs == nil {
				return
			}
		}
	}()
}

func (s *Service) publishChunk(req protocol.SpeechRequest, chunk SynthChunk) {
	packet := protocol.AudioChunk{
		AnnouncementID: req.AnnouncementID,
		Target:         req.Target,
		SampleRate:     chunk.SampleRate,
		Channels:       chunk.Channels,
		Sequence:       chunk.Sequence,
		PCM:            chunk.PCM,
		Final:          chunk.Final,
	}
	data, err := json.Marshal(packet)
	if err != nil {
		s.logger.Warn("failed to marshal audio chunk", slogError(err))
		return
	}
	if err := s.bus.Conn().Publish(protocol.SubjectSpeechAudio, data); err != nil {
		s.logger.Warn("failed to publish audio chunk", slogError(err))
	}
	if chunk.Final {
		status := protocol.SpeechStatus{
			AnnouncementID: req.AnnouncementID,
			Target:         req.Target,
			Completed:      true,
			Timestamp:      time.Now().UTC(),
		}
		if data, err := json.Marshal(status); err == nil {
			_ = s.bus.Conn().Publish(protocol.SubjectSpeechDone, data)
		}
	}
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
