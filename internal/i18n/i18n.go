package i18n

import "strings"

// Language 描述用户希望使用的界面语言。
// 使用简短的语言代码（如 ko、en），便于在配置与请求中传递。
type Language string

const (
	LanguageKorean  Language = "ko"
	LanguageEnglish Language = "en"

	// DefaultLanguage 未配置时的默认语言。
	DefaultLanguage = LanguageKorean
)

// Normalize 将用户输入的语言值转换为统一的语言代码。
// 空字符串或未知值会回退到默认语言。
func Normalize(value string) Language {
	lang := strings.ToLower(strings.TrimSpace(value))
	switch lang {
	case "", "ko", "ko-kr", "ko_kr", "kr", "korean", "한국어":
		return LanguageKorean
	case "en", "en-us", "en_us", "en-gb", "english":
		return LanguageEnglish
	default:
		return DefaultLanguage
	}
}

// Code 返回规范化后的语言代码。
func (l Language) Code() string {
	return string(Normalize(string(l)))
}

// DisplayName 返回适合展示的语言名称。
func (l Language) DisplayName() string {
	switch Normalize(string(l)) {
	case LanguageEnglish:
		return "English"
	default:
		return "한국어"
	}
}
