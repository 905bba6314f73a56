// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package nbmodel

import "time"

// NoLoop is the sentinel loop id meaning "never run": the loop_id on an
// Event before its first attempt.
const NoLoop = ^uint32(0)

// Event is the fundamental state-machine cell of the Report. Monotonic:
// once Seconds >= 1 the event is done and callers must not re-initialise
// it within the same loop.
type Event struct {
	Name    string    `json:"name"`
	Init    time.Time `json:"init"`
	End     time.Time `json:"end"`
	Seconds int64     `json:"seconds"` // -1 until finished, >=1 once finished
	LoopID  uint32    `json:"loop_id"` // NoLoop before first attempt
	Error   string    `json:"error,omitempty"`
}

// NewEvent returns a fresh, never-run Event.
func NewEvent(name string) Event {
	return Event{Name: name, Seconds: -1, LoopID: NoLoop}
}

// IsDone reports whether the event has finished: done iff seconds > 0.
func (e Event) IsDone() bool { return e.Seconds > 0 }

// RState is the lightweight projection of an Event.
type RState struct {
	Done    bool      `json:"done"`
	LoopID  uint32    `json:"loop_id"`
	Date    time.Time `json:"date"`
	Seconds int64     `json:"seconds"`
	Error   string    `json:"error,omitempty"`
}

// State projects an Event into an RState.
func (e Event) State() RState {
	return RState{
		Done:    e.IsDone(),
		LoopID:  e.LoopID,
		Date:    e.End,
		Seconds: e.Seconds,
		Error:   e.Error,
	}
}

// Begin initialises the event for the given loop: sets init-timestamp,
// clears duration, stamps the current loop id.
func (e *Event) Begin(loopID uint32, now time.Time) {
	e.Init = now
	e.Seconds = -1
	e.LoopID = loopID
	e.Error = ""
}

// Finish computes max(1, end-init) in seconds and stores the error message
// (empty on success). The one-second floor is preserved unconditionally,
// even on sub-second completions, for Report-format compatibility.
func (e *Event) Finish(ok bool, errMsg string, now time.Time) {
	e.End = now
	secs := int64(now.Sub(e.Init).Seconds())
	if secs < 1 {
		secs = 1
	}
	e.Seconds = secs
	if ok {
		e.Error = ""
	} else {
		e.Error = errMsg
	}
}

// Loop is one appended record in the Report's loop history.
type Loop struct {
	Init   time.Time `json:"init"`
	End    time.Time `json:"end"`
	LogB64 string    `json:"log_b64,omitempty"`
}
