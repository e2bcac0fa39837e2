// Package google provides a Google Cloud Speech-to-Text adapter.
package google

import (
	"context"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"

	"speech-training-service/internal/service/stt"
)

// Name is the provider name reported by the Google adapter.
const Name = "google"

// Config holds Google Speech-to-Text recognition settings.
type Config struct {
	LanguageCode    string
	SampleRateHz    int32
	AudioEncoding   string
	Model           string
	HintBoost       float32
	CredentialsFile string
}

// DefaultConfig returns recognition settings for Brazilian Portuguese
// 16 kHz LINEAR16 audio.
func DefaultConfig() Config {
	return Config{
		LanguageCode:  "pt-BR",
		SampleRateHz:  16000,
		AudioEncoding: "LINEAR16",
		HintBoost:     10,
	}
}

// recognizer is the subset of speech.Client used by the adapter.
type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
	Close() error
}

// Adapter implements stt.Adapter using synchronous Google recognition.
type Adapter struct {
	client recognizer
	cfg    Config
}

// New creates a new Google STT adapter.
// Without a credentials file, GOOGLE_APPLICATION_CREDENTIALS is used.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, stt.Wrap(Name, err)
	}
	return &Adapter{client: c, cfg: cfg}, nil
}

// Name returns "google".
func (a *Adapter) Name() string { return Name }

// Transcribe runs one synchronous recognition. Hints are sent as a boosted
// speech context.
func (a *Adapter) Transcribe(ctx context.Context, audio []byte, hints []string) (string, error) {
	resp, err := a.client.Recognize(ctx, a.buildRequest(audio, hints))
	if err != nil {
		return "", stt.Wrap(Name, err)
	}

	parts := make([]string, 0, len(resp.GetResults()))
	for _, r := range resp.GetResults() {
		if len(r.GetAlternatives()) == 0 {
			continue
		}
		if t := strings.TrimSpace(r.GetAlternatives()[0].GetTranscript()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " "), nil
}

// Close releases the underlying client.
func (a *Adapter) Close() error {
	return a.client.Close()
}

func (a *Adapter) buildRequest(audio []byte, hints []string) *speechpb.RecognizeRequest {
	rc := &speechpb.RecognitionConfig{
		Encoding:        parseAudioEncoding(a.cfg.AudioEncoding),
		SampleRateHertz: a.cfg.SampleRateHz,
		LanguageCode:    a.cfg.LanguageCode,
		Model:           a.cfg.Model,
	}
	if len(hints) > 0 {
		rc.SpeechContexts = []*speechpb.SpeechContext{{
			Phrases: append([]string(nil), hints...),
			Boost:   a.cfg.HintBoost,
		}}
	}
	return &speechpb.RecognizeRequest{
		Config: rc,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}
}

// parseAudioEncoding maps an upper-case encoding name to the protobuf enum,
// falling back to LINEAR16.
func parseAudioEncoding(name string) speechpb.RecognitionConfig_AudioEncoding {
	switch name {
	case "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC
	case "AMR":
		return speechpb.RecognitionConfig_AMR
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_LINEAR16
	}
}
