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

package client

import (
	"errors"
	"fmt"

	"github.com/cogment/cogment-exergame/services/exergame/episode"
	"github.com/cogment/cogment-exergame/services/exergame/recorder"
	"github.com/mitchellh/go-homedir"
)

// readArchive opens an archive file written by a stopped service
func readArchive(path string, read func(archive *recorder.Recorder) error) error {
	expandedPath, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("unable to expand archive file path %q: %w", path, err)
	}
	archive, err := recorder.OpenRecorder(expandedPath)
	if err != nil {
		return err
	}
	defer archive.Destroy()
	err = read(archive)
	if errors.Is(err, recorder.ErrUnknownGame) {
		games, gamesErr := archive.Games()
		if gamesErr == nil {
			return fmt.Errorf("%w, archived mini-games are %v", err, games)
		}
	}
	return err
}

func archivedEntries(path string, game string, limit uint) ([]recorder.Entry, error) {
	var entries []recorder.Entry
	err := readArchive(path, func(archive *recorder.Recorder) error {
		var err error
		entries, err = archive.Entries(game, int(limit))
		return err
	})
	return entries, err
}

func archivedOutcomes(path string, game string) ([]episode.Outcome, error) {
	var outcomes []episode.Outcome
	err := readArchive(path, func(archive *recorder.Recorder) error {
		var err error
		outcomes, err = archive.Outcomes(game)
		return err
	})
	return outcomes, err
}
