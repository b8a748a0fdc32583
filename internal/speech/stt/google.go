package stt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
)

type recognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

// GoogleService implements STT with Google Cloud Speech synchronous recognition.
type GoogleService struct {
	client    *speech.Client
	recognize recognizeFunc
}

// NewGoogle dials the Speech API using application default credentials.
func NewGoogle(ctx context.Context) (*GoogleService, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	return &GoogleService{
		client: c,
		recognize: func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
			return c.Recognize(ctx, req)
		},
	}, nil
}

func (g *GoogleService) Name() string {
	return "google-speech"
}

func (g *GoogleService) Transcribe(ctx context.Context, audio []byte, config Config) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}

	encoding, rate := googleEncoding(config.Format())
	resp, err := g.recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   encoding,
			SampleRateHertz:            rate,
			LanguageCode:               googleLanguage(config.Language),
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", providerError("google", 0, "", err)
	}

	parts := make([]string, 0, len(resp.GetResults()))
	for _, r := range resp.GetResults() {
		if len(r.GetAlternatives()) == 0 {
			continue
		}
		parts = append(parts, strings.TrimSpace(r.GetAlternatives()[0].GetTranscript()))
	}
	return strings.Join(parts, " "), nil
}

// Close releases the gRPC connection.
func (g *GoogleService) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// googleEncoding maps browser recording containers to Speech encodings. A zero
// rate lets the API read it from the header.
func googleEncoding(format string) (speechpb.RecognitionConfig_AudioEncoding, int32) {
	switch format {
	case "webm":
		return speechpb.RecognitionConfig_WEBM_OPUS, 48000
	case "ogg", "oga", "opus":
		return speechpb.RecognitionConfig_OGG_OPUS, 48000
	case "flac":
		return speechpb.RecognitionConfig_FLAC, 0
	case "wav":
		return speechpb.RecognitionConfig_LINEAR16, 0
	}
	return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, 0
}

func googleLanguage(lang string) string {
	if lang == "" || lang == "en" {
		return "en-US"
	}
	return lang
}

var _ Service = (*GoogleService)(nil)
