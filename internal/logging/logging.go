/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures zerolog for the process.
func Setup(environment string) zerolog.Logger {
	return SetupWithWriter(environment, nil)
}

// SetupWithWriter configures zerolog with an additional JSON writer, such as
// the in-memory log buffer. Development gets debug level and console output;
// other environments log JSON at info level.
func SetupWithWriter(environment string, additionalWriter io.Writer) zerolog.Logger {
	return setup(environment, os.Stdout, additionalWriter)
}

func setup(environment string, out io.Writer, additionalWriter io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.DurationFieldUnit = time.Second
	zerolog.DurationFieldInteger = false

	level := zerolog.InfoLevel
	var primary io.Writer = out
	if environment == "development" {
		level = zerolog.DebugLevel
		primary = zerolog.ConsoleWriter{Out: out}
	}

	writer := primary
	if additionalWriter != nil {
		writer = zerolog.MultiLevelWriter(primary, additionalWriter)
	}

	logger := zerolog.New(writer).With().Timestamp().Logger().Level(level)
	log.Logger = logger
	return logger
}
