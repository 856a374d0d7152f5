package segmenter

import (
	"context"
	"errors"
	"testing"

	"videoforge/internal/config"
	"videoforge/internal/services"
)

func fakeSegmenter(output []byte, err error) *Segmenter {
	s := New(config.Segmenter{Binary: "fake-align", Model: "base"})
	s.runCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return output, err
	}
	return s
}

func TestSegmentParsesToolOutput(t *testing.T) {
	s := fakeSegmenter([]byte(`{"segments":[
		{"text":" first part ","start":0,"end":2.5},
		{"text":"second part","start":2.5,"end":4}
	]}`), nil)

	list, err := s.Segment(context.Background(), "narration.mp3")
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if len(list.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(list.Segments))
	}
	if list.Segments[0].Text != "first part" {
		t.Fatalf("unexpected text: %q", list.Segments[0].Text)
	}
	if list.Segments[0].Duration != 2.5 {
		t.Fatalf("unexpected duration: %v", list.Segments[0].Duration)
	}
}

func TestSegmentDropsEmptySegments(t *testing.T) {
	s := fakeSegmenter([]byte(`{"segments":[
		{"text":"   ","start":0,"end":1},
		{"text":"kept","start":1,"end":2}
	]}`), nil)

	list, err := s.Segment(context.Background(), "narration.mp3")
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if len(list.Segments) != 1 || list.Segments[0].Text != "kept" {
		t.Fatalf("unexpected segments: %#v", list.Segments)
	}
}

func TestSegmentRejectsInvertedTimes(t *testing.T) {
	s := fakeSegmenter([]byte(`{"segments":[{"text":"x","start":5,"end":1}]}`), nil)
	_, err := s.Segment(context.Background(), "narration.mp3")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation failure, got %v", err)
	}
}

func TestSegmentToolFailureIsCollaboratorFailure(t *testing.T) {
	s := fakeSegmenter(nil, errors.New("exit status 1"))
	_, err := s.Segment(context.Background(), "narration.mp3")
	if !errors.Is(err, services.ErrCollaborator) {
		t.Fatalf("expected collaborator failure, got %v", err)
	}
}

func TestSegmentNoBinaryIsConfigurationFault(t *testing.T) {
	s := New(config.Segmenter{})
	_, err := s.Segment(context.Background(), "narration.mp3")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration fault, got %v", err)
	}
}
