package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/usecase"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Languages loads the language filter choices from YAML:
//
//	languages:
//	  - Go
//	  - Rust
type Languages struct {
	path string
}

type languageFile struct {
	Languages []string `yaml:"languages"`
}

func (x *Languages) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "language-file",
			Usage:       "YAML file listing languages offered by the language filter",
			Category:    "Search",
			Destination: &x.path,
			Sources:     cli.EnvVars("STARFINDER_LANGUAGE_FILE"),
		},
	}
}

func (x Languages) LogValue() slog.Value {
	return slog.GroupValue(slog.String("path", x.path))
}

// Configure returns the built-in list when no file is given.
func (x *Languages) Configure() ([]string, error) {
	if x.path == "" {
		return usecase.DefaultLanguages, nil
	}

	raw, err := os.ReadFile(filepath.Clean(x.path))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read language file", goerr.V("path", x.path))
	}

	var file languageFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse language file", goerr.V("path", x.path))
	}

	var languages []string
	seen := map[string]struct{}{}
	for _, lang := range file.Languages {
		lang = strings.TrimSpace(lang)
		key := strings.ToLower(lang)
		if lang == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		languages = append(languages, lang)
	}
	if len(languages) == 0 {
		return nil, goerr.New("language file has no languages", goerr.V("path", x.path))
	}

	return languages, nil
}
