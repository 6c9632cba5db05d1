// Package codec classifies browser-recorded audio uploads into the codec tags
// understood by the speech recognition providers.
//
// Classification is an explicit ordered table, not content sniffing: the MIME
// type reported by the client is authoritative when it matches a known token,
// and the filename extension is consulted only when the MIME type yields
// nothing. Callers must treat [speech.EncodingUnknown] as a rejection — the
// gateway never guesses a codec and submits it to a provider.
package codec

import (
	"strings"

	"github.com/Aditya-402/Interactive-trainer/pkg/provider/speech"
)

// mimeRule matches a lowercased MIME type by substring. Rules are evaluated
// in order; the first match wins.
type mimeRule struct {
	match func(string) bool
	tag   speech.Encoding
}

// mimeRules is the ordered MIME classification table. WebM and Ogg entries
// require both the container token and an Opus/Vorbis codec token because
// browsers report types like "audio/webm;codecs=opus".
var mimeRules = []mimeRule{
	{func(m string) bool {
		return strings.Contains(m, "webm") && (strings.Contains(m, "opus") || strings.Contains(m, "vorbis"))
	}, speech.EncodingOpusWebM},
	{func(m string) bool {
		return strings.Contains(m, "ogg") && (strings.Contains(m, "opus") || strings.Contains(m, "vorbis"))
	}, speech.EncodingOpusOgg},
	{func(m string) bool { return strings.Contains(m, "wav") }, speech.EncodingLinear16},
	{func(m string) bool { return strings.Contains(m, "mp3") || strings.Contains(m, "mpeg") }, speech.EncodingMP3},
	{func(m string) bool { return strings.Contains(m, "flac") }, speech.EncodingFLAC},
}

// extRule maps a filename suffix to a codec tag. Evaluated in order.
type extRule struct {
	suffixes []string
	tag      speech.Encoding
}

var extRules = []extRule{
	{[]string{".webm"}, speech.EncodingOpusWebM},
	{[]string{".ogg", ".opus"}, speech.EncodingOpusOgg},
	{[]string{".wav"}, speech.EncodingLinear16},
	{[]string{".mp3"}, speech.EncodingMP3},
	{[]string{".flac"}, speech.EncodingFLAC},
}

// Classify determines the codec tag for an uploaded audio blob from its MIME
// type and filename. Either argument may be empty. The MIME type wins when it
// matches a known token; the filename extension is a fallback only. Returns
// [speech.EncodingUnknown] when neither source matches.
func Classify(mimeType, filename string) speech.Encoding {
	if mimeType != "" {
		m := strings.ToLower(mimeType)
		for _, r := range mimeRules {
			if r.match(m) {
				return r.tag
			}
		}
	}

	if filename != "" {
		f := strings.ToLower(filename)
		for _, r := range extRules {
			for _, suffix := range r.suffixes {
				if strings.HasSuffix(f, suffix) {
					return r.tag
				}
			}
		}
	}

	return speech.EncodingUnknown
}
