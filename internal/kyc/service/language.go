package service

import (
	"strings"

	"golang.org/x/text/language"
)

// 支持的表单/PDF 语言，第一个为默认
var supportedLanguages = []language.Tag{language.Arabic, language.English}

var languageMatcher = language.NewMatcher(supportedLanguages)

// NormalizeLanguage 把 "en-US"、"ar_SA" 等归一为 ar / en；无法识别时返回 fallback
func NormalizeLanguage(raw, fallback string) string {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "_", "-"))
	if raw == "" {
		return fallback
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return fallback
	}
	_, idx, conf := languageMatcher.Match(tag)
	if conf == language.No {
		return fallback
	}
	base, _ := supportedLanguages[idx].Base()
	return base.String()
}

func isSupportedLanguage(raw string) bool {
	return NormalizeLanguage(raw, "") != ""
}
