package languages

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shrutilabs/shruti-backend/internal/logger"
)

// builtinScripts maps each supported transcription language to the script
// its text is rendered in.
var builtinScripts = map[string]string{
	"Gujarati":  "Gujarati",
	"Hindi":     "Devanagari",
	"English":   "Latin",
	"Tamil":     "Tamil",
	"Telugu":    "Telugu",
	"Kannada":   "Kannada",
	"Malayalam": "Malayalam",
	"Bengali":   "Bengali",
	"Marathi":   "Devanagari",
	"Punjabi":   "Gurmukhi",
	"Urdu":      "Arabic",
	"Odia":      "Odia",
	"Assamese":  "Bengali",
	"Sanskrit":  "Devanagari",
}

const DefaultScript = "Latin"

type Registry struct {
	log     *logger.Logger
	scripts map[string]string
}

// NewRegistry builds the language registry from the built-in table, merged
// with an optional YAML override file pointed at by LANGUAGES_CONFIG_PATH.
// The override file is a flat map of language name to script name.
func NewRegistry(log *logger.Logger) (*Registry, error) {
	registryLog := log.With("component", "LanguageRegistry")

	scripts := make(map[string]string, len(builtinScripts))
	for lang, script := range builtinScripts {
		scripts[lang] = script
	}

	path := strings.TrimSpace(os.Getenv("LANGUAGES_CONFIG_PATH"))
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read languages config: %w", err)
		}
		overrides := map[string]string{}
		if err := yaml.Unmarshal(raw, &overrides); err != nil {
			return nil, fmt.Errorf("parse languages config: %w", err)
		}
		for lang, script := range overrides {
			lang = strings.TrimSpace(lang)
			script = strings.TrimSpace(script)
			if lang == "" || script == "" {
				continue
			}
			scripts[lang] = script
		}
		registryLog.Info("Loaded language overrides", "path", path, "overrides", len(overrides))
	}

	return &Registry{log: registryLog, scripts: scripts}, nil
}

// Script reports the script for a language, falling back to Latin for
// languages the registry does not know.
func (r *Registry) Script(language string) string {
	if script, ok := r.scripts[language]; ok {
		return script
	}
	return DefaultScript
}

func (r *Registry) Supported(language string) bool {
	_, ok := r.scripts[language]
	return ok
}

// Names returns the supported language names in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scripts))
	for lang := range r.scripts {
		names = append(names, lang)
	}
	sort.Strings(names)
	return names
}
