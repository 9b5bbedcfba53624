package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.elevenlabs.io/v1"
	DefaultModel   = "eleven_turbo_v2_5"
)

var ErrNotConfigured = errors.New("voice not configured")

type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

type Settings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// DefaultSettings favour expressive delivery with clear pronunciation.
func DefaultSettings() Settings {
	return Settings{Stability: 0.35, SimilarityBoost: 0.80, Style: 0.15, UseSpeakerBoost: true}
}

// Clamped bounds every ratio to [0, 1].
func (s Settings) Clamped() Settings {
	clamp := func(v float64) float64 { return min(1, max(0, v)) }
	return Settings{
		Stability:       clamp(s.Stability),
		SimilarityBoost: clamp(s.SimilarityBoost),
		Style:           clamp(s.Style),
		UseSpeakerBoost: s.UseSpeakerBoost,
	}
}

// Synthesizer turns text into MP3 audio through ElevenLabs.
type Synthesizer struct {
	baseURL  string
	apiKey   string
	voiceID  string
	model    string
	settings Settings
	http     HTTPDoer
}

type Option func(*Synthesizer)

func WithBaseURL(u string) Option     { return func(s *Synthesizer) { s.baseURL = strings.TrimRight(u, "/") } }
func WithHTTP(d HTTPDoer) Option      { return func(s *Synthesizer) { s.http = d } }
func WithSettings(st Settings) Option { return func(s *Synthesizer) { s.settings = st.Clamped() } }
func WithModel(model string) Option   { return func(s *Synthesizer) { s.model = model } }

func NewSynthesizer(apiKey, voiceID string, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		baseURL:  DefaultBaseURL,
		apiKey:   apiKey,
		voiceID:  voiceID,
		model:    DefaultModel,
		settings: DefaultSettings(),
		http:     &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(s)
	}
	if s.model == "" {
		s.model = DefaultModel
	}
	return s
}

func (s *Synthesizer) Configured() bool {
	return s != nil && s.apiKey != "" && s.voiceID != ""
}

type ttsRequest struct {
	Text          string   `json:"text"`
	ModelID       string   `json:"model_id"`
	VoiceSettings Settings `json:"voice_settings"`
}

// Speak sends text as-is; callers clean it with PrepareTextForSpeech first.
func (s *Synthesizer) Speak(ctx context.Context, text string) ([]byte, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("voice: empty text")
	}

	body, err := json.Marshal(ttsRequest{Text: text, ModelID: s.model, VoiceSettings: s.settings})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/text-to-speech/"+s.voiceID, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("elevenlabs: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs read: %w", err)
	}
	log.Printf("[voice] generated %d bytes with model %s", len(audio), s.model)
	return audio, nil
}

// Note cleans text and speaks it.
func (s *Synthesizer) Note(ctx context.Context, text string) ([]byte, error) {
	return s.Speak(ctx, PrepareTextForSpeech(text))
}

// Brief speaks a morning brief with its intro and sign-off.
func (s *Synthesizer) Brief(ctx context.Context, text string) ([]byte, error) {
	return s.Speak(ctx, MorningBrief(text))
}
