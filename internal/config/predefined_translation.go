package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// PredefinedTranslation 预定义译文（词汇表）文件
//
//	source_lang = "en"
//	target_lang = "ar"
//
//	[translations]
//	"Good morning" = "صباح الخير"
type PredefinedTranslation struct {
	SourceLang   string            `toml:"source_lang"`
	TargetLang   string            `toml:"target_lang"`
	Translations map[string]string `toml:"translations"`
}

func NewPredefinedTranslation(sourceLang, targetLang string, translations map[string]string) *PredefinedTranslation {
	return &PredefinedTranslation{
		SourceLang:   sourceLang,
		TargetLang:   targetLang,
		Translations: translations,
	}
}

// LoadPredefinedTranslations 读取 TOML 词汇表
func LoadPredefinedTranslations(path string) (*PredefinedTranslation, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("predefined translations file not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read predefined translations file: %w", err)
	}

	translations := &PredefinedTranslation{}
	if err := toml.Unmarshal(content, translations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal predefined translations: %w", err)
	}
	if translations.SourceLang == "" || translations.TargetLang == "" {
		return nil, fmt.Errorf("predefined translations file is missing source_lang or target_lang")
	}
	if translations.Translations == nil {
		translations.Translations = make(map[string]string)
	}
	return translations, nil
}

// SavePredefinedTranslations 写入 TOML 词汇表
func SavePredefinedTranslations(pt *PredefinedTranslation, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create predefined translations file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(pt); err != nil {
		return fmt.Errorf("failed to encode predefined translations: %w", err)
	}
	return nil
}
