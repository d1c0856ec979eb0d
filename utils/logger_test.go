/*
 * Copyright 2025 The burrow Authors.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel("WARNING"))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel(""))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("bogus"))
}

func TestSetLoggerLevelByName(t *testing.T) {
	l := NewLogger("LEVELTEST")
	require.True(t, SetLoggerLevel("LEVELTEST", "error"))
	assert.Equal(t, logrus.ErrorLevel, l.GetLevel())
	assert.False(t, SetLoggerLevel("NOSUCHLOGGER", "debug"))
}

func TestConsoleFormatterOutput(t *testing.T) {
	l := NewLogger("FMT")
	var buf bytes.Buffer
	l.SetOutput(&buf)

	l.Info("connection established")
	out := buf.String()
	assert.Contains(t, out, "connection established")
	assert.Contains(t, out, "FMT")
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("BURROW_UTILS_SAMPLE", "value")
	assert.Equal(t, "value", EnvDefaultString("BURROW_UTILS_SAMPLE", "fallback"))
	assert.Equal(t, "fallback", EnvDefaultString("BURROW_UTILS_MISSING", "fallback"))

	t.Setenv("BURROW_UTILS_BOOL", "true")
	assert.True(t, EnvDefaultBool("BURROW_UTILS_BOOL", false))
	assert.False(t, EnvDefaultBool("BURROW_UTILS_BOOL_MISSING", false))
}
