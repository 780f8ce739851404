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

package utils

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// LoggerFormatter renders log entries on a single line, the prefix fields
// (e.g. the component and the mini-game) are rendered first, in order.
type LoggerFormatter struct {
	PrefixFields []string
	// Colors enables ANSI coloring of the level and prefix
	Colors bool
}

func MakeLoggerFormatter(prefixFields []string, colors bool) LoggerFormatter {
	return LoggerFormatter{
		PrefixFields: prefixFields,
		Colors:       colors,
	}
}

func (f *LoggerFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	prefixFields, otherFields := f.splitFields(entry)

	b := &bytes.Buffer{}

	b.WriteString(entry.Time.Format(time.RFC3339))

	level := strings.ToUpper(entry.Level.String())
	if f.Colors {
		fmt.Fprintf(b, " \x1b[%dm[%s]", colorByLevel(entry.Level), level[:4])
	} else {
		fmt.Fprintf(b, " [%s]", level[:4])
	}

	if len(prefixFields) > 0 {
		values := make([]string, 0, len(prefixFields))
		for _, field := range prefixFields {
			values = append(values, fmt.Sprintf("%v", entry.Data[field]))
		}
		fmt.Fprintf(b, " [%s]", strings.Join(values, ">"))
	}
	if f.Colors {
		b.WriteString("\x1b[0m")
	}

	b.WriteByte(' ')
	b.WriteString(strings.TrimSpace(entry.Message))

	for _, field := range otherFields {
		fmt.Fprintf(b, " [%s:%v]", field, entry.Data[field])
	}

	b.WriteByte('\n')

	return b.Bytes(), nil
}

func (f *LoggerFormatter) splitFields(entry *logrus.Entry) ([]string, []string) {
	prefixFields := []string{}
	otherFields := []string{}
	isPrefixField := map[string]bool{}
	for _, field := range f.PrefixFields {
		isPrefixField[field] = true
		if _, ok := entry.Data[field]; ok {
			prefixFields = append(prefixFields, field)
		}
	}
	for field := range entry.Data {
		if !isPrefixField[field] {
			otherFields = append(otherFields, field)
		}
	}
	sort.Strings(otherFields)
	return prefixFields, otherFields
}

const (
	colorRed    = 31
	colorYellow = 33
	colorBlue   = 36
	colorGray   = 37
)

func colorByLevel(level logrus.Level) int {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return colorGray
	case logrus.WarnLevel:
		return colorYellow
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return colorRed
	default:
		return colorBlue
	}
}
