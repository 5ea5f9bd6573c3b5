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

package session

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jaycherian/gcp-go-cineprompt/internal/core/model"
)

// ParseTimecode converts "H:MM:SS", "MM:SS" or plain seconds into a number
// of seconds. Components are read most-significant first and may carry
// decimals ("01:02.5" is 62.5). Empty components, negative or non-finite
// numbers, and more than three components are rejected with
// model.ErrInvalidTimecode.
func ParseTimecode(in string) (float64, error) {
	value := strings.TrimSpace(in)
	if value == "" {
		return 0, fmt.Errorf("%w: empty", model.ErrInvalidTimecode)
	}
	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q has too many components", model.ErrInvalidTimecode, in)
	}

	seconds := 0.0
	for _, part := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%w: %q", model.ErrInvalidTimecode, in)
		}
		seconds = seconds*60 + n
	}
	return seconds, nil
}
