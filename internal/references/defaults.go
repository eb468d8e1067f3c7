package references

import (
	_ "embed"
	"sync"

	"github.com/wagnerlima/mozichem-hub/internal/models"
)

//go:embed data/reference.txt
var defaultContent string

//go:embed data/reference-config.yml
var defaultConfigText string

var (
	defaultsOnce   sync.Once
	defaultCorpus  *Corpus
	defaultConfig  models.ReferenceConfig
	errDefaultLoad error
)

func loadDefaults() {
	defaultsOnce.Do(func() {
		defaultCorpus, errDefaultLoad = Parse(defaultContent)
		if errDefaultLoad != nil {
			return
		}
		defaultConfig, errDefaultLoad = ParseConfig(defaultConfigText)
	})
}

// DefaultContent returns the bundled reference content.
func DefaultContent() string {
	return defaultContent
}

// DefaultCorpus returns the parsed bundled corpus. It is shared; callers must
// not modify it.
func DefaultCorpus() (*Corpus, error) {
	loadDefaults()
	return defaultCorpus, errDefaultLoad
}

// DefaultConfig returns a copy of the bundled reference config.
func DefaultConfig() (models.ReferenceConfig, error) {
	loadDefaults()
	if errDefaultLoad != nil {
		return nil, errDefaultLoad
	}
	return CloneConfig(defaultConfig), nil
}
