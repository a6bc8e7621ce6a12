package google

import (
	"SupertonicClient/internal/config"
	"SupertonicClient/internal/service/tts"
	"context"
	"errors"
	"math"
	"net/http"
	"testing"

	ttspb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var testCfg = config.GoogleTTSConfig{
	Language:         "en-US",
	FemaleVoice:      "en-US-Standard-C",
	MaleVoice:        "en-US-Standard-D",
	Pitch:            -2,
	EffectsProfileID: "headphone-class-device",
}

func TestBuildRequest(t *testing.T) {
	tests := []struct {
		name  string
		style tts.VoiceStyle
		speed float64
		voice string
		rate  float64
	}{
		{"female", tts.StyleF1, 1.0, "en-US-Standard-C", 1.0},
		{"female alt", tts.StyleF2, 1.25, "en-US-Standard-C", 0.8},
		{"male", tts.StyleM1, 0.9, "en-US-Standard-D", 1 / 0.9},
		{"male alt", tts.StyleM2, 1.5, "en-US-Standard-D", 1 / 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := buildRequest(testCfg, tts.Request{Text: "Hello", VoiceStyle: tt.style, TotalStep: 10, Speed: tt.speed})
			if got := r.GetVoice().GetName(); got != tt.voice {
				t.Errorf("voice = %q, want %q", got, tt.voice)
			}
			if got := r.GetVoice().GetLanguageCode(); got != "en-US" {
				t.Errorf("language = %q", got)
			}
			if got := r.GetAudioConfig().GetSpeakingRate(); math.Abs(got-tt.rate) > 1e-9 {
				t.Errorf("rate = %v, want %v", got, tt.rate)
			}
			if r.GetAudioConfig().GetAudioEncoding() != ttspb.AudioEncoding_LINEAR16 {
				t.Errorf("encoding = %v", r.GetAudioConfig().GetAudioEncoding())
			}
			if r.GetInput().GetText() != "Hello" {
				t.Errorf("text = %q", r.GetInput().GetText())
			}
			if p := r.GetAudioConfig().GetEffectsProfileId(); len(p) != 1 || p[0] != "headphone-class-device" {
				t.Errorf("effects = %v", p)
			}
		})
	}
}

func TestSynthesizeValidatesBeforeSDK(t *testing.T) {
	c := New(testCfg, zaptest.NewLogger(t).Sugar(), nil)
	_, err := c.Synthesize(context.Background(), tts.Request{Text: "  ", VoiceStyle: tts.StyleF1, TotalStep: 5, Speed: 1})
	if !tts.IsKind(err, tts.KindValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestSDKError(t *testing.T) {
	tests := []struct {
		name   string
		in     error
		kind   tts.Kind
		msg    string
		status int
	}{
		{"deadline", context.DeadlineExceeded, tts.KindTransport, "Request timed out", 0},
		{"grpc deadline", status.Error(codes.DeadlineExceeded, "slow"), tts.KindTransport, "Request timed out", 0},
		{"unavailable", status.Error(codes.Unavailable, "dns"), tts.KindTransport, "Unable to reach the TTS service", 0},
		{"invalid", status.Error(codes.InvalidArgument, "Voice does not exist"), tts.KindServer, "Voice does not exist", http.StatusBadRequest},
		{"internal empty", status.Error(codes.Internal, ""), tts.KindServer, tts.GenericFailure, http.StatusInternalServerError},
		{"plain", errors.New("boom"), tts.KindTransport, "Unable to reach the TTS service", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sdkError(tt.in)
			if !tts.IsKind(err, tt.kind) {
				t.Fatalf("kind = %v, want %v", tts.KindOf(err), tt.kind)
			}
			if got := tts.UserMessage(err); got != tt.msg {
				t.Errorf("message = %q, want %q", got, tt.msg)
			}
			var te *tts.Error
			if errors.As(err, &te) && te.Status != tt.status {
				t.Errorf("status = %d, want %d", te.Status, tt.status)
			}
		})
	}
}

func TestConvertVoices(t *testing.T) {
	got := convertVoices([]*ttspb.Voice{
		{Name: "en-US-Standard-C", SsmlGender: ttspb.SsmlVoiceGender_FEMALE},
		{Name: "en-US-Standard-D", SsmlGender: ttspb.SsmlVoiceGender_MALE},
		{Name: "en-US-Neutral", SsmlGender: ttspb.SsmlVoiceGender_NEUTRAL},
	})
	want := []string{"Female", "Male", "Neutral"}
	if len(got) != len(want) {
		t.Fatalf("len = %d", len(got))
	}
	for i, g := range want {
		if got[i].Gender != g || got[i].ID == "" {
			t.Errorf("voice %d = %+v", i, got[i])
		}
	}
}
