package recs

import (
	"context"
	"fmt"
)

// tapStage forwards every unit downstream untouched while recording
// what it observed in a shared log. stopAfter > 0 makes it signal stop
// once that many units have been accepted.
type tapStage struct {
	name      Name
	next      Consumer
	log       *[]string
	stopAfter int
	accepted  int
	finished  int
}

func (s *tapStage) WantsInput() bool { return true }

func (s *tapStage) AcceptLine(ctx context.Context, line string) (bool, error) {
	s.accepted++
	*s.log = append(*s.log, fmt.Sprintf("%s line %s", s.name, line))
	more, err := s.next.AcceptLine(ctx, line)
	if err != nil {
		return false, err
	}
	if s.stopAfter > 0 && s.accepted >= s.stopAfter {
		return false, nil
	}
	return more, nil
}

func (s *tapStage) AcceptRecord(ctx context.Context, rec *Record) (bool, error) {
	s.accepted++
	*s.log = append(*s.log, fmt.Sprintf("%s record %s", s.name, rec))
	more, err := s.next.AcceptRecord(ctx, rec)
	if err != nil {
		return false, err
	}
	if s.stopAfter > 0 && s.accepted >= s.stopAfter {
		return false, nil
	}
	return more, nil
}

func (s *tapStage) Finish(context.Context) error {
	s.finished++
	*s.log = append(*s.log, fmt.Sprintf("%s finish", s.name))
	return nil
}

// registerTap installs a tap factory under name and returns the slice
// that collects every instance the factory constructs, one per
// compilation.
func registerTap(reg *Registry, name Name, log *[]string, stopAfter int) *[]*tapStage {
	instances := &[]*tapStage{}
	reg.Register(name, func(_ Env, _ []string, next Consumer) (Stage, error) {
		s := &tapStage{name: name, next: next, log: log, stopAfter: stopAfter}
		*instances = append(*instances, s)
		return s, nil
	})
	return instances
}

// sourceStage is a self-generating stage: it wants no input and emits
// its preset lines downstream when finalized.
type sourceStage struct {
	next     Consumer
	lines    []string
	finished int
}

func (s *sourceStage) WantsInput() bool { return false }

func (s *sourceStage) AcceptLine(ctx context.Context, line string) (bool, error) {
	return s.next.AcceptLine(ctx, line)
}

func (s *sourceStage) AcceptRecord(ctx context.Context, rec *Record) (bool, error) {
	return s.next.AcceptRecord(ctx, rec)
}

func (s *sourceStage) Finish(ctx context.Context) error {
	s.finished++
	for _, line := range s.lines {
		more, err := s.next.AcceptLine(ctx, line)
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return nil
}

// failStage returns a fixed error from every accept.
type failStage struct {
	err error
}

func (s *failStage) WantsInput() bool { return true }

func (s *failStage) AcceptLine(context.Context, string) (bool, error) {
	return false, s.err
}

func (s *failStage) AcceptRecord(context.Context, *Record) (bool, error) {
	return false, s.err
}

func (s *failStage) Finish(context.Context) error { return nil }
