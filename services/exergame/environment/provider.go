// Copyright 2023 AI Redefined Inc. <dev+cogment@ai-r.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package environment

import (
	"fmt"

	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

// StaticProvider is an in-memory Provider keyed by mini-game name
type StaticProvider map[string]DifficultyConfig

func (p StaticProvider) DifficultyConfig(game string) (DifficultyConfig, bool) {
	cfg, ok := p[game]
	return cfg, ok
}

type difficultyFile struct {
	Games []DifficultyConfig `yaml:"games"`
}

// LoadProvider reads the difficulty configs from a yaml file, missing fields are taken from defaults
func LoadProvider(fs afero.Fs, path string, defaults StaticProvider) (StaticProvider, error) {
	expandedPath, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("unable to expand difficulty file path %q: %w", path, err)
	}

	content, err := afero.ReadFile(fs, expandedPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read difficulty file %q: %w", expandedPath, err)
	}

	file := difficultyFile{}
	err = yaml.Unmarshal(content, &file)
	if err != nil {
		return nil, fmt.Errorf("unable to parse difficulty file %q: %w", expandedPath, err)
	}

	provider := StaticProvider{}
	for game, cfg := range defaults {
		provider[game] = cfg
	}
	for _, cfg := range file.Games {
		if cfg.Game == "" {
			return nil, fmt.Errorf("difficulty file %q defines a config without game_name", expandedPath)
		}
		merged, err := cfg.WithDefaults(defaults[cfg.Game])
		if err != nil {
			return nil, err
		}
		provider[cfg.Game] = merged
	}

	log.WithFields(logrus.Fields{
		"path":  expandedPath,
		"games": len(file.Games),
	}).Debug("difficulty configs loaded")
	return provider, nil
}
