// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jaycherian/gcp-go-cineprompt/internal/core/model"
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/session"
)

func TestParseTimecode(t *testing.T) {
	cases := map[string]float64{
		"01:02:03": 3723,
		"02:03":    123,
		"45":       45,
		"0:00:00":  0,
		" 1:30 ":   90,
		"00:01.5":  1.5,
		"10:00:00": 36000,
		"90":       90,
		"00:75":    75,
	}
	for in, want := range cases {
		got, err := session.ParseTimecode(in)
		if assert.NoError(t, err, in) {
			assert.InDelta(t, want, got, 1e-9, in)
		}
	}
}

func TestParseTimecodeMalformed(t *testing.T) {
	for _, in := range []string{"", "  ", "abc", "1:2:3:4", "01::03", ":30", "-5", "1:-2", "NaN", "Inf", "00:0x"} {
		_, err := session.ParseTimecode(in)
		assert.ErrorIs(t, err, model.ErrInvalidTimecode, in)
	}
}
