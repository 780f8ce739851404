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

package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cogment/cogment-exergame/services/exergame/episode"
	"github.com/cogment/cogment-exergame/services/exergame/policy"
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

var log = logrus.WithField("component", "recorder")

// Bucket structure is
//	sessions	> {game}	> {seq}	> {Entry}
//	outcomes	> {game}	> {seq}	> {episode.Outcome}

var sessionsBucketName = []byte("sessions")

var outcomesBucketName = []byte("outcomes")

// Entry is an archived session log
type Entry struct {
	Seq       uint64          `json:"seq"`
	Game      string          `json:"game"`
	EpisodeID string          `json:"episode_id"`
	Time      time.Time       `json:"time"`
	Data      json.RawMessage `json:"data"`
}

// Recorder archives session logs and episode outcomes in a bolt-managed file
type Recorder struct {
	db       *bolt.DB
	filePath string
}

func serializeNumID(id uint64) []byte {
	// Format using a hex representation of a fixed length of 16 characters padded with 0
	return []byte(fmt.Sprintf("%016x", id))
}

func deserializeNumID(value []byte) (uint64, error) {
	number, err := strconv.ParseUint(string(value), 16, 64)
	if err != nil {
		return 0, NewUnexpectedError("unable to deserialize number id (%w)", err)
	}
	return number, nil
}

func open(filePath string, readOnly bool) (*Recorder, error) {
	db, err := bolt.Open(filePath, 0600, &bolt.Options{Timeout: 1 * time.Second, ReadOnly: readOnly})
	if err != nil {
		// Opening of the file failed
		return nil, err
	}
	if !readOnly {
		// Create the root buckets
		err = db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(sessionsBucketName)
			if err != nil {
				return NewUnexpectedError("unable to create the sessions bucket (%w)", err)
			}
			_, err = tx.CreateBucketIfNotExists(outcomesBucketName)
			if err != nil {
				return NewUnexpectedError("unable to create the outcomes bucket (%w)", err)
			}
			return nil
		})
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	return &Recorder{db: db, filePath: filePath}, nil
}

// CreateRecorder opens, or creates, the archive file for writing
func CreateRecorder(filePath string) (*Recorder, error) {
	return open(filePath, false)
}

// OpenRecorder opens an existing archive file for reading, it waits for the writing process to release it
func OpenRecorder(filePath string) (*Recorder, error) {
	return open(filePath, true)
}

func (r *Recorder) FilePath() string {
	return r.filePath
}

func (r *Recorder) Destroy() {
	r.db.Close()
	r.db = nil
}

func (r *Recorder) append(rootBucketName []byte, game string, value interface{}) error {
	v, err := json.Marshal(value)
	if err != nil {
		return NewUnexpectedError("unable to serialize [%s] archive entry (%w)", game, err)
	}
	return r.db.Batch(func(tx *bolt.Tx) error {
		gameBucket, err := tx.Bucket(rootBucketName).CreateBucketIfNotExists([]byte(game))
		if err != nil {
			return NewUnexpectedError("unable to create the [%s] bucket (%w)", game, err)
		}
		// Because we use `NextSequence` here the sequence starts at 1
		seq, err := gameBucket.NextSequence()
		if err != nil {
			return NewUnexpectedError("unable to allocate a [%s] sequence (%w)", game, err)
		}
		return gameBucket.Put(serializeNumID(seq), v)
	})
}

// LogSession archives a session log, it implements policy.SessionLogger
func (r *Recorder) LogSession(_ context.Context, record policy.SessionRecord) error {
	data, err := json.Marshal(record.Entry)
	if err != nil {
		return NewUnexpectedError("unable to serialize [%s] session log (%w)", record.Game, err)
	}
	return r.append(sessionsBucketName, record.Game, Entry{
		Game:      record.Game,
		EpisodeID: record.EpisodeID,
		Time:      record.Time,
		Data:      data,
	})
}

// ShowResult archives an episode outcome, it implements episode.ResultSink
func (r *Recorder) ShowResult(outcome episode.Outcome) {
	err := r.append(outcomesBucketName, outcome.Game, outcome)
	if err != nil {
		log.WithFields(logrus.Fields{
			"game":       outcome.Game,
			"episode_id": outcome.EpisodeID,
			"error":      err,
		}).Warn("unable to archive episode outcome")
	}
}

// Games lists the mini-games having archived session logs or outcomes
func (r *Recorder) Games() ([]string, error) {
	games := []string{}
	seen := map[string]bool{}
	err := r.db.View(func(tx *bolt.Tx) error {
		for _, rootBucketName := range [][]byte{sessionsBucketName, outcomesBucketName} {
			rootBucket := tx.Bucket(rootBucketName)
			if rootBucket == nil {
				continue
			}
			err := rootBucket.ForEach(func(k, _ []byte) error {
				game := string(k)
				if !seen[game] {
					seen[game] = true
					games = append(games, game)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return games, err
}

// lastValues walks the last limit values of a game bucket in insertion order, every value when limit <= 0
func (r *Recorder) lastValues(rootBucketName []byte, game string, limit int, visit func(seq uint64, v []byte) error) error {
	return r.db.View(func(tx *bolt.Tx) error {
		rootBucket := tx.Bucket(rootBucketName)
		if rootBucket == nil {
			return ErrUnknownGame
		}
		gameBucket := rootBucket.Bucket([]byte(game))
		if gameBucket == nil {
			return ErrUnknownGame
		}

		c := gameBucket.Cursor()
		k, _ := c.First()
		if limit > 0 {
			k, _ = c.Last()
			for i := 1; i < limit && k != nil; i++ {
				k, _ = c.Prev()
			}
			if k == nil {
				k, _ = c.First()
			}
		}
		for ; k != nil; k, _ = c.Next() {
			seq, err := deserializeNumID(k)
			if err != nil {
				return err
			}
			err = visit(seq, gameBucket.Get(k))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Entries returns the last limit session logs of a mini-game, oldest first
func (r *Recorder) Entries(game string, limit int) ([]Entry, error) {
	entries := []Entry{}
	err := r.lastValues(sessionsBucketName, game, limit, func(seq uint64, v []byte) error {
		entry := Entry{}
		err := json.Unmarshal(v, &entry)
		if err != nil {
			return NewUnexpectedError("unable to deserialize [%s] session log #%d (%w)", game, seq, err)
		}
		entry.Seq = seq
		entries = append(entries, entry)
		return nil
	})
	return entries, err
}

// Outcomes returns every archived episode outcome of a mini-game, oldest first
func (r *Recorder) Outcomes(game string) ([]episode.Outcome, error) {
	outcomes := []episode.Outcome{}
	err := r.lastValues(outcomesBucketName, game, 0, func(seq uint64, v []byte) error {
		outcome := episode.Outcome{}
		err := json.Unmarshal(v, &outcome)
		if err != nil {
			return NewUnexpectedError("unable to deserialize [%s] outcome #%d (%w)", game, seq, err)
		}
		outcomes = append(outcomes, outcome)
		return nil
	})
	return outcomes, err
}
