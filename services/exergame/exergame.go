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

package exergame

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cogment/cogment-exergame/services/exergame/environment"
	"github.com/cogment/cogment-exergame/services/exergame/episode"
	"github.com/cogment/cogment-exergame/services/exergame/games"
	"github.com/cogment/cogment-exergame/services/exergame/httpserver"
	"github.com/cogment/cogment-exergame/services/exergame/policy"
	"github.com/cogment/cogment-exergame/services/exergame/recorder"
	"github.com/cogment/cogment-exergame/services/exergame/session"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

var log = logrus.WithField("component", "exergame")

type Options struct {
	PolicyEndpoint string
	Games          []string
	// DifficultyFile is an optional yaml file overriding the default difficulty configs
	DifficultyFile string
	Training       bool
	BatchThreshold int
	// Interval overrides the default interval between control cycles of every mini-game
	Interval time.Duration
	// WebPort is the port of the status api, 0 disables it
	WebPort uint
	// ArchiveFile is an optional file archiving session logs and outcomes
	ArchiveFile    string
	Secret         string
	SessionID      string
	RequestTimeout time.Duration
	Skill          float64
	Seed           int64
}

var DefaultOptions = Options{
	PolicyEndpoint: "http://localhost:5000",
	Games:          games.DefaultRegistry().Names(),
	DifficultyFile: "",
	Training:       true,
	BatchThreshold: 5,
	Interval:       0,
	WebPort:        8080,
	ArchiveFile:    "",
	Secret:         "",
	SessionID:      "",
	RequestTimeout: policy.DefaultRequestTimeout,
	Skill:          games.DefaultOptions.Skill,
	Seed:           games.DefaultOptions.Seed,
}

func loadProvider(fs afero.Fs, registry *games.Registry, difficultyFile string) (environment.Provider, error) {
	if difficultyFile == "" {
		return registry.Defaults(), nil
	}
	return environment.LoadProvider(fs, difficultyFile, registry.Defaults())
}

func buildManager(
	registry *games.Registry,
	provider environment.Provider,
	transport *policy.Transport,
	clientOptions policy.Options,
	options Options,
) (*session.Manager, error) {
	manager := session.NewManager()
	for gameIdx, name := range options.Games {
		cfg, err := registry.Config(name, provider)
		if err != nil {
			return nil, err
		}
		if !cfg.IsEnabled() {
			log.WithField("game", name).Info("mini-game disabled by its difficulty config")
			continue
		}
		instance, err := registry.Create(name, provider, games.Options{
			Interval: options.Interval,
			Skill:    options.Skill,
			Seed:     options.Seed + int64(gameIdx),
			Tick:     games.DefaultOptions.Tick,
		})
		if err != nil {
			return nil, err
		}
		client, err := policy.NewClient(instance.Game, transport, clientOptions)
		if err != nil {
			return nil, fmt.Errorf("unable to create the [%s] policy client: %w", name, err)
		}
		manager.Add(client, instance.Simulate)
		log.WithFields(logrus.Fields{
			"game":       name,
			"difficulty": cfg.Difficulty,
			"interval":   instance.Game.Interval(),
		}).Debug("mini-game session created")
	}
	if len(manager.Names()) == 0 {
		return nil, fmt.Errorf("no enabled mini-game among %v", options.Games)
	}
	return manager, nil
}

func Run(ctx context.Context, options Options) error {
	registry := games.DefaultRegistry()

	provider, err := loadProvider(afero.NewOsFs(), registry, options.DifficultyFile)
	if err != nil {
		return err
	}

	if options.SessionID == "" {
		options.SessionID = uuid.NewString()
	}

	transport := policy.NewTransport(options.PolicyEndpoint, options.RequestTimeout)
	if options.Secret != "" {
		transport = transport.WithSigning(options.SessionID, options.Secret)
	}

	sinks := episode.MultiSink{episode.NewConsoleSink(os.Stdout)}
	sessionLoggers := []policy.SessionLogger{policy.NewHTTPSessionLogger(transport)}
	var archive httpserver.Archive
	var rec *recorder.Recorder
	if options.ArchiveFile != "" {
		rec, err = recorder.CreateRecorder(options.ArchiveFile)
		if err != nil {
			return fmt.Errorf("unable to open the archive file %q: %w", options.ArchiveFile, err)
		}
		defer rec.Destroy()
		log.WithField("path", rec.FilePath()).Debug("archiving session logs and outcomes")
		sinks = append(sinks, rec)
		sessionLoggers = append(sessionLoggers, rec)
		archive = rec
	}

	clientOptions := policy.DefaultOptions
	clientOptions.SessionID = options.SessionID
	clientOptions.Training = options.Training
	clientOptions.Threshold = options.BatchThreshold
	clientOptions.SessionLoggers = sessionLoggers
	clientOptions.Sink = sinks

	manager, err := buildManager(registry, provider, transport, clientOptions, options)
	if err != nil {
		return err
	}

	group, ctx := errgroup.WithContext(ctx)

	log.WithFields(logrus.Fields{
		"policy_endpoint": options.PolicyEndpoint,
		"games":           manager.Names(),
		"training":        options.Training,
		"session_id":      options.SessionID,
	}).Info("starting the adaptive difficulty sessions")
	group.Go(func() error {
		return manager.Run(ctx)
	})

	var httpServer *httpserver.Server
	if options.WebPort > 0 {
		httpServer = httpserver.New(options.WebPort, manager, archive)
		group.Go(func() error {
			log.WithField("web_port", options.WebPort).Info("http server listening")
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("unexpected error while serving http routes: %v", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		<-ctx.Done()
		log.Info("Gracefully stopping")

		stopGroup, stopCtx := errgroup.WithContext(context.Background())
		if httpServer != nil {
			stopGroup.Go(func() error {
				log.Debug("Stopping the http server")
				stopCtx, cancel := context.WithTimeout(stopCtx, 5*time.Second)
				defer cancel()
				return httpServer.Shutdown(stopCtx)
			})
		}

		err := stopGroup.Wait()
		if err != nil {
			log.WithField("error", err).Warning("Error while stopping")
		}
		return ctx.Err()
	})

	return group.Wait()
}
