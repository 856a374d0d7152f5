// Package segmenter runs the local narration alignment tool and parses its
// timed-segment output.
package segmenter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"videoforge/internal/artifacts"
	"videoforge/internal/config"
	"videoforge/internal/services"
)

// Segmenter shells out to an alignment binary that emits timed narration
// segments as JSON on stdout.
type Segmenter struct {
	cfg config.Segmenter

	// runCommand is swappable for tests.
	runCommand func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// New constructs a segmenter from configuration.
func New(cfg config.Segmenter) *Segmenter {
	return &Segmenter{
		cfg:        cfg,
		runCommand: runCommand,
	}
}

type toolOutput struct {
	Segments []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"segments"`
}

// Segment aligns the narration audio at audioPath and returns the timed
// segments in playback order.
func (s *Segmenter) Segment(ctx context.Context, audioPath string) (*artifacts.SegmentList, error) {
	if strings.TrimSpace(s.cfg.Binary) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", "segment narration", "no segmenter binary configured", nil)
	}

	args := []string{"--output", "json"}
	if s.cfg.Model != "" {
		args = append(args, "--model", s.cfg.Model)
	}
	args = append(args, audioPath)

	if s.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}
	output, err := s.runCommand(ctx, s.cfg.Binary, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrCollaborator, "", "segment narration", "", err)
	}

	var decoded toolOutput
	if err := json.Unmarshal(output, &decoded); err != nil {
		return nil, services.Wrap(services.ErrValidation, "", "segment narration", "decode tool output", err)
	}
	if len(decoded.Segments) == 0 {
		return nil, services.Wrap(services.ErrValidation, "", "segment narration", "tool returned no segments", nil)
	}

	list := &artifacts.SegmentList{Segments: make([]artifacts.Segment, 0, len(decoded.Segments))}
	for i, seg := range decoded.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if seg.End < seg.Start {
			return nil, services.Wrap(services.ErrValidation, "", "segment narration",
				fmt.Sprintf("segment %d ends before it starts", i+1), nil)
		}
		list.Segments = append(list.Segments, artifacts.Segment{
			Text:     text,
			Start:    seg.Start,
			End:      seg.End,
			Duration: seg.End - seg.Start,
		})
	}
	if len(list.Segments) == 0 {
		return nil, services.Wrap(services.ErrValidation, "", "segment narration", "all segments were empty", nil)
	}
	return list, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, detail)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}
