package azure

import (
	"strings"

	"github.com/voicebridge/voicebridge/internal/domain"
)

// DefaultVoiceName is used when the requested language has no catalog
// entry or the voice type is unrecognized.
const DefaultVoiceName = "en-US-JennyNeural"

const defaultLocale = "en-US"

type voiceEntry struct {
	locale string
	male   string
	female string
}

// voiceCatalog maps the base language tag to its neural voice pair.
var voiceCatalog = map[string]voiceEntry{
	"vi": {locale: "vi-VN", male: "vi-VN-NamMinhNeural", female: "vi-VN-HoaiMyNeural"},
	"en": {locale: "en-US", male: "en-US-GuyNeural", female: "en-US-JennyNeural"},
	"ja": {locale: "ja-JP", male: "ja-JP-KeitaNeural", female: "ja-JP-NanamiNeural"},
}

// VoiceName resolves the neural voice for a language tag and voice type.
// Region subtags are ignored, so "vi-VN" and "vi" resolve identically.
func VoiceName(language string, voice domain.VoiceType) string {
	name, _ := resolveVoice(language, voice)

	return name
}

func resolveVoice(language string, voice domain.VoiceType) (string, string) {
	base := strings.ToLower(language)
	if idx := strings.IndexByte(base, '-'); idx > 0 {
		base = base[:idx]
	}

	entry, ok := voiceCatalog[base]
	if !ok {
		return DefaultVoiceName, defaultLocale
	}

	if voice == domain.VoiceMale {
		return entry.male, entry.locale
	}

	return entry.female, entry.locale
}
