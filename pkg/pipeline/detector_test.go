package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	d := NewDetector(nil)

	tests := []struct {
		name       string
		text       string
		language   Language
		confidence Confidence
	}{
		{"english", "Hello, how are you today?", LanguageEnglish, ConfidenceHigh},
		{"arabic", "مرحبا كيف حالك", LanguageArabic, ConfidenceHigh},
		{"digits only", "123 456", LanguageUnknown, ConfidenceLow},
		{"empty", "", LanguageUnknown, ConfidenceLow},
		{"even mix leans arabic", "Hello مرحبا", LanguageArabic, ConfidenceLow},
		{"english with arabic quote", "The word مرحبا means hello in Arabic", LanguageEnglish, ConfidenceHigh},
		{"english with cyrillic", "Hello world Привет", LanguageEnglish, ConfidenceMedium},
		{"cyrillic", "Привет мир", LanguageUnknown, ConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := d.Detect(tt.text)
			assert.Equal(t, tt.language, verdict.Language)
			assert.Equal(t, tt.confidence, verdict.Confidence)
		})
	}
}

func TestDetectorCustomThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ArabicThreshold = 0.6

	verdict := NewDetector(cfg).Detect("Hello مرحبا")
	assert.Equal(t, LanguageUnknown, verdict.Language)
}
