package openai

import (
	"testing"

	"github.com/Aditya-402/Interactive-trainer/pkg/provider/speech"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty API key")
	}
}

func TestNew_Defaults(t *testing.T) {
	p, err := New("sk-test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.speechModel != DefaultSpeechModel {
		t.Errorf("unexpected speech model %q", p.speechModel)
	}
	if p.transcriptionModel != DefaultTranscriptionModel {
		t.Errorf("unexpected transcription model %q", p.transcriptionModel)
	}
	if p.voice != "alloy" {
		t.Errorf("unexpected default voice %q", p.voice)
	}
}

func TestNew_Options(t *testing.T) {
	p, err := New("sk-test",
		WithSpeechModel("tts-1-hd"),
		WithTranscriptionModel("whisper-1"),
		WithVoice("nova"),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.speechModel != "tts-1-hd" {
		t.Errorf("unexpected speech model %q", p.speechModel)
	}
	if p.voice != "nova" {
		t.Errorf("unexpected voice %q", p.voice)
	}
}

func TestUploadName(t *testing.T) {
	tests := []struct {
		enc          speech.Encoding
		wantFilename string
		wantType     string
	}{
		{speech.EncodingOpusWebM, "audio.webm", "audio/webm"},
		{speech.EncodingOpusOgg, "audio.ogg", "audio/ogg"},
		{speech.EncodingLinear16, "audio.wav", "audio/wav"},
		{speech.EncodingMP3, "audio.mp3", "audio/mpeg"},
		{speech.EncodingFLAC, "audio.flac", "audio/flac"},
		{speech.EncodingUnknown, "audio.bin", "application/octet-stream"},
	}
	for _, tt := range tests {
		filename, contentType := uploadName(tt.enc)
		if filename != tt.wantFilename || contentType != tt.wantType {
			t.Errorf("uploadName(%q) = (%q, %q), want (%q, %q)",
				tt.enc, filename, contentType, tt.wantFilename, tt.wantType)
		}
	}
}
