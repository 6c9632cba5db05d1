package speech

// Encoding identifies the audio codec of a recorded blob submitted for
// transcription. The zero value is EncodingUnknown.
type Encoding string

const (
	// EncodingUnknown means the codec could not be determined. Providers must
	// never receive it; the HTTP surface rejects such uploads with 415.
	EncodingUnknown Encoding = ""

	// EncodingOpusWebM is Opus audio in a WebM container (browser MediaRecorder
	// default in Chromium).
	EncodingOpusWebM Encoding = "webm-opus"

	// EncodingOpusOgg is Opus (or Vorbis) audio in an Ogg container (Firefox
	// MediaRecorder default).
	EncodingOpusOgg Encoding = "ogg-opus"

	// EncodingLinear16 is uncompressed 16-bit signed little-endian PCM,
	// typically inside a WAV container.
	EncodingLinear16 Encoding = "linear16"

	// EncodingMP3 is MPEG audio layer III.
	EncodingMP3 Encoding = "mp3"

	// EncodingFLAC is the Free Lossless Audio Codec.
	EncodingFLAC Encoding = "flac"
)

// IsValid reports whether e is a concrete, recognised codec.
// EncodingUnknown is not valid.
func (e Encoding) IsValid() bool {
	switch e {
	case EncodingOpusWebM, EncodingOpusOgg, EncodingLinear16, EncodingMP3, EncodingFLAC:
		return true
	}
	return false
}
