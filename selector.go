package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/aluedtke7/tune_select/display"
)

type trigger int

const (
	noTrigger trigger = iota
	triggerButton
	triggerMotion
	triggerRemote
)

func (t trigger) String() string {
	switch t {
	case triggerButton:
		return "button"
	case triggerMotion:
		return "motion"
	case triggerRemote:
		return "remote"
	}
	return "none"
}

// pointWriter is the part of the InfluxDB blocking write API we use.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

type status struct {
	Update string         `json:"update"`
	Index  int            `json:"index"`
	Tune   string         `json:"tune"`
	Source string         `json:"source"`
	Counts map[string]int `json:"counts"`
}

// selector cycles through the tune descriptions whenever the button is
// pressed or the motion sensor fires, and shows the current one.
type selector struct {
	disp        display.Display
	tunes       []string
	influx      pointWriter
	measurement string

	index       int
	motionState bool

	mu   sync.Mutex
	last status
}

func newSelector(disp display.Display, tunes []string) *selector {
	return &selector{
		disp:  disp,
		tunes: tunes,
		last:  status{Update: "---", Source: noTrigger.String(), Counts: map[string]int{}},
	}
}

// poll turns the current input levels into a trigger. The button wins over
// the motion sensor; motion only counts on its rising edge.
func (s *selector) poll(buttonPressed, motion bool) trigger {
	if buttonPressed {
		return triggerButton
	}
	if motion {
		if !s.motionState {
			s.motionState = true
			return triggerMotion
		}
		return noTrigger
	}
	s.motionState = false
	return noTrigger
}

// start shows the first tune without advancing.
func (s *selector) start(info string) {
	s.disp.Clear()
	s.disp.PrintLine(display.Line1, s.tunes[s.index])
	s.disp.PrintLine(display.Line2, info)
	s.record(noTrigger)
}

// show displays the current tune and moves on to the next one.
func (s *selector) show(t trigger) {
	if t == noTrigger {
		return
	}
	s.disp.Clear()
	s.disp.PrintLine(display.Line1, s.tunes[s.index])
	s.disp.PrintLine(display.Line2, t.String())
	s.record(t)
	s.index = (s.index + 1) % len(s.tunes)
}

// choose makes index the next tune to show.
func (s *selector) choose(index int) error {
	if index < 0 || index >= len(s.tunes) {
		return fmt.Errorf("tune index %d out of range 0..%d", index, len(s.tunes)-1)
	}
	s.index = index
	return nil
}

func (s *selector) record(t trigger) {
	s.mu.Lock()
	s.last.Update = time.Now().Format(DATE_TIME_FORMAT)
	s.last.Index = s.index
	s.last.Tune = s.tunes[s.index]
	s.last.Source = t.String()
	if t != noTrigger {
		s.last.Counts[t.String()]++
	}
	s.mu.Unlock()

	if s.influx == nil || t == noTrigger {
		return
	}
	point := write.NewPoint(s.measurement,
		map[string]string{"source": t.String()},
		map[string]interface{}{"index": s.index, "tune": s.tunes[s.index]},
		time.Now())
	if err := s.influx.WritePoint(context.Background(), point); err != nil {
		lg.Error(err.Error())
	}
}

// snapshot returns a copy of the last shown state.
func (s *selector) snapshot() status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.last
	st.Counts = make(map[string]int, len(s.last.Counts))
	for k, v := range s.last.Counts {
		st.Counts[k] = v
	}
	return st
}
