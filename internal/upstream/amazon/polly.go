package amazon

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
)

type PollyAPI interface {
	DescribeVoices(ctx context.Context, in *polly.DescribeVoicesInput, optFns ...func(*polly.Options)) (*polly.DescribeVoicesOutput, error)
	SynthesizeSpeech(ctx context.Context, in *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

type SpeechInput struct {
	Engine   string
	Language string
	Voice    string
	Text     string
	SSML     bool
}

type Speech struct {
	api  PollyAPI
	opts options
}

func NewSpeech(api PollyAPI, opts ...Option) *Speech {
	return &Speech{api: api, opts: newOptions(opts)}
}

// Voices lists voice names available for an engine and language.
func (s *Speech) Voices(ctx context.Context, engine, language string) ([]string, error) {
	in := &polly.DescribeVoicesInput{
		Engine:       types.Engine(engine),
		LanguageCode: types.LanguageCode(language),
	}
	var names []string
	for {
		started := time.Now()
		out, err := s.api.DescribeVoices(ctx, in)
		s.opts.observe("polly.describe_voices", started, err)
		if err != nil {
			return nil, fmt.Errorf("describe voices: %w", err)
		}
		for _, v := range out.Voices {
			names = append(names, aws.ToString(v.Name))
		}
		if aws.ToString(out.NextToken) == "" {
			return names, nil
		}
		in.NextToken = out.NextToken
	}
}

// Synthesize returns MP3 audio for the input text.
func (s *Speech) Synthesize(ctx context.Context, in SpeechInput) ([]byte, error) {
	textType := types.TextTypeText
	if in.SSML {
		textType = types.TextTypeSsml
	}
	started := time.Now()
	out, err := s.api.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Engine:       types.Engine(in.Engine),
		LanguageCode: types.LanguageCode(in.Language),
		OutputFormat: types.OutputFormatMp3,
		Text:         aws.String(in.Text),
		TextType:     textType,
		VoiceId:      types.VoiceId(in.Voice),
	})
	s.opts.observe("polly.synthesize_speech", started, err)
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	defer out.AudioStream.Close()
	return io.ReadAll(out.AudioStream)
}
