package i18n

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/amoylab/casamento/internal/common/cnst"
	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

var (
	translatorMu sync.RWMutex
	translator   *I18n

	// supported lists the languages with bundles; the first is the fallback
	supported = []language.Tag{language.English, language.Portuguese}
	matcher   = language.NewMatcher(supported)
)

// InitTranslator loads the bundles under translationsPath and installs
// them as the global translator
func InitTranslator(translationsPath string) error {
	t := NewI18n(language.English)
	if err := t.LoadTranslations(translationsPath); err != nil {
		return err
	}
	SetTranslator(t)
	return nil
}

// SetTranslator replaces the global translator
func SetTranslator(t *I18n) {
	translatorMu.Lock()
	defer translatorMu.Unlock()
	translator = t
}

// GetTranslator returns the global translator, nil before initialization
func GetTranslator() *I18n {
	translatorMu.RLock()
	defer translatorMu.RUnlock()
	return translator
}

// I18n manages internationalization and translations
type I18n struct {
	bundle      *i18n.Bundle
	defaultLang language.Tag
}

// NewI18n creates a new I18n instance with the specified default language
func NewI18n(defaultLang language.Tag) *I18n {
	bundle := i18n.NewBundle(defaultLang)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	return &I18n{
		bundle:      bundle,
		defaultLang: defaultLang,
	}
}

// LoadTranslations loads every .toml file of translationsDir. File names
// carry the language, e.g. pt.toml.
func (i *I18n) LoadTranslations(translationsDir string) error {
	files, err := os.ReadDir(translationsDir)
	if err != nil {
		return fmt.Errorf("failed to read translations directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".toml") {
			continue
		}
		filePath := filepath.Join(translationsDir, file.Name())
		if _, err := i.bundle.LoadMessageFile(filePath); err != nil {
			return fmt.Errorf("failed to load %s: %w", filePath, err)
		}
	}
	return nil
}

// AddMessage registers one message for lang
func (i *I18n) AddMessage(lang language.Tag, id, other string) error {
	return i.bundle.AddMessages(lang, &i18n.Message{ID: id, Other: other})
}

// Translate returns a localized string for the given message ID and language
func (i *I18n) Translate(msgID string, lang string, templateData map[string]any) string {
	localizer := i18n.NewLocalizer(i.bundle, lang, i.defaultLang.String())

	lc := &i18n.LocalizeConfig{
		MessageID: msgID,
	}
	if len(templateData) > 0 {
		lc.TemplateData = templateData
	}

	msg, err := localizer.Localize(lc)
	if err != nil {
		return msgID // Return original message ID if translation fails
	}
	return msg
}

// NormalizeLang maps any language tag or Accept-Language value to a
// supported language code
func NormalizeLang(values ...string) string {
	tag, _ := language.MatchStrings(matcher, values...)
	base, _ := tag.Base()
	return base.String()
}

// LanguageFromRequest reads the X-Lang header, then Accept-Language
func LanguageFromRequest(r *http.Request) string {
	return NormalizeLang(r.Header.Get(cnst.XLang), r.Header.Get("Accept-Language"))
}

// Lang returns the language negotiated for the request
func Lang(c *gin.Context) string {
	if lang := c.GetString(cnst.XLang); lang != "" {
		return lang
	}
	return LanguageFromRequest(c.Request)
}

// Translate translates msgID with the global translator
func Translate(msgID, lang string, data map[string]any) string {
	if t := GetTranslator(); t != nil {
		return t.Translate(msgID, lang, data)
	}
	return msgID
}

// TranslateMessage translates a message ID using the context's language preference
func TranslateMessage(c *gin.Context, msgID string, data map[string]any) string {
	return Translate(msgID, Lang(c), data)
}
