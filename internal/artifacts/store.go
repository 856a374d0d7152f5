package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"videoforge/internal/catalog"
	"videoforge/internal/services"
)

const (
	transcriptFile   = "transcript.json"
	summaryFile      = "summary.json"
	topicsFile       = "topics.json"
	introductionFile = "introduction.txt"
	contentsFile     = "contents.json"
	narrationFile    = "narration.txt"
	segmentsFile     = "segments.json"
	audioFile        = "narration.mp3"
	missingFile      = "missing_assets.json"
	failuresFile     = "match_failures.json"
)

// ErrNotFound reports an artifact that has not been produced yet.
var ErrNotFound = errors.New("artifact not found")

// Store reads and writes per-item artifact files under the data directory.
// Files carry content only; completion state lives in the catalog.
type Store struct {
	root string
}

// NewStore creates an artifact store rooted at dataDir.
func NewStore(dataDir string) *Store {
	return &Store{root: dataDir}
}

// ItemDir returns the directory holding an item's artifacts.
func (s *Store) ItemDir(item *catalog.Item) string {
	return filepath.Join(s.root, item.ChannelName, strconv.FormatInt(item.ID, 10))
}

// AudioPath returns the expected narration audio location for an item.
func (s *Store) AudioPath(item *catalog.Item) string {
	return filepath.Join(s.ItemDir(item), "audio", audioFile)
}

// SaveTranscript persists the transcript artifact.
func (s *Store) SaveTranscript(item *catalog.Item, t *Transcript) error {
	return s.writeJSON(item, transcriptFile, t)
}

// LoadTranscript reads and validates the transcript artifact. An unavailable
// sentinel is valid (the stage completed with a permanent negative answer);
// an empty text without the sentinel is a validation failure.
func (s *Store) LoadTranscript(item *catalog.Item) (*Transcript, error) {
	var t Transcript
	if err := s.readJSON(item, transcriptFile, &t); err != nil {
		return nil, err
	}
	if !t.Unavailable && strings.TrimSpace(t.Text) == "" {
		return nil, s.invalid(transcriptFile, "transcript text is empty")
	}
	return &t, nil
}

// SaveSummary persists the summary artifact.
func (s *Store) SaveSummary(item *catalog.Item, sum *Summary) error {
	return s.writeJSON(item, summaryFile, sum)
}

// LoadSummary reads and validates the summary artifact.
func (s *Store) LoadSummary(item *catalog.Item) (*Summary, error) {
	var sum Summary
	if err := s.readJSON(item, summaryFile, &sum); err != nil {
		return nil, err
	}
	if strings.TrimSpace(sum.Summary) == "" {
		return nil, s.invalid(summaryFile, "summary text is empty")
	}
	return &sum, nil
}

// SaveTopics persists the topic list artifact.
func (s *Store) SaveTopics(item *catalog.Item, topics *TopicList) error {
	return s.writeJSON(item, topicsFile, topics)
}

// LoadTopics reads and validates the topic list: non-empty, sequentially
// numbered from 1, every entry titled.
func (s *Store) LoadTopics(item *catalog.Item) (*TopicList, error) {
	var topics TopicList
	if err := s.readJSON(item, topicsFile, &topics); err != nil {
		return nil, err
	}
	if len(topics.Topics) == 0 {
		return nil, s.invalid(topicsFile, "topic list is empty")
	}
	for i, topic := range topics.Topics {
		if topic.Number != i+1 {
			return nil, s.invalid(topicsFile, fmt.Sprintf("topic %d has number %d, expected %d", i, topic.Number, i+1))
		}
		if strings.TrimSpace(topic.Title) == "" {
			return nil, s.invalid(topicsFile, fmt.Sprintf("topic %d has an empty title", topic.Number))
		}
	}
	return &topics, nil
}

// SaveIntroduction persists the introduction artifact.
func (s *Store) SaveIntroduction(item *catalog.Item, text string) error {
	return s.writeFile(item, introductionFile, []byte(text))
}

// LoadIntroduction reads and validates the introduction artifact.
func (s *Store) LoadIntroduction(item *catalog.Item) (string, error) {
	data, err := s.readFile(item, introductionFile)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", s.invalid(introductionFile, "introduction is empty")
	}
	return text, nil
}

// SaveContents persists the ordered content blocks.
func (s *Store) SaveContents(item *catalog.Item, contents *ContentList) error {
	return s.writeJSON(item, contentsFile, contents)
}

// LoadContents reads and validates the content blocks.
func (s *Store) LoadContents(item *catalog.Item) (*ContentList, error) {
	var contents ContentList
	if err := s.readJSON(item, contentsFile, &contents); err != nil {
		return nil, err
	}
	if len(contents.Blocks) == 0 {
		return nil, s.invalid(contentsFile, "content block list is empty")
	}
	for i, block := range contents.Blocks {
		if block.Number != i+1 {
			return nil, s.invalid(contentsFile, fmt.Sprintf("block %d has number %d, expected %d", i, block.Number, i+1))
		}
		if strings.TrimSpace(block.Text) == "" {
			return nil, s.invalid(contentsFile, fmt.Sprintf("block %d has empty text", block.Number))
		}
	}
	return &contents, nil
}

// SaveNarration persists the assembled narration script consumed by TTS.
func (s *Store) SaveNarration(item *catalog.Item, text string) error {
	return s.writeFile(item, narrationFile, []byte(text))
}

// LoadNarration reads and validates the narration script.
func (s *Store) LoadNarration(item *catalog.Item) (string, error) {
	data, err := s.readFile(item, narrationFile)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", s.invalid(narrationFile, "narration script is empty")
	}
	return text, nil
}

// SaveSegments persists the segmented narration.
func (s *Store) SaveSegments(item *catalog.Item, segments *SegmentList) error {
	return s.writeJSON(item, segmentsFile, segments)
}

// LoadSegments reads and validates the segmented narration.
func (s *Store) LoadSegments(item *catalog.Item) (*SegmentList, error) {
	var segments SegmentList
	if err := s.readJSON(item, segmentsFile, &segments); err != nil {
		return nil, err
	}
	if len(segments.Segments) == 0 {
		return nil, s.invalid(segmentsFile, "segment list is empty")
	}
	for i, segment := range segments.Segments {
		if strings.TrimSpace(segment.Text) == "" {
			return nil, s.invalid(segmentsFile, fmt.Sprintf("segment %d has empty text", i))
		}
		if segment.End < segment.Start {
			return nil, s.invalid(segmentsFile, fmt.Sprintf("segment %d ends before it starts", i))
		}
	}
	return &segments, nil
}

// SaveMissingReport persists the soft-pass missing-media report.
func (s *Store) SaveMissingReport(item *catalog.Item, report *MissingReport) error {
	report.Count = len(report.Phrases)
	return s.writeJSON(item, missingFile, report)
}

// LoadMissingReport reads the missing-media report when present.
func (s *Store) LoadMissingReport(item *catalog.Item) (*MissingReport, error) {
	var report MissingReport
	if err := s.readJSON(item, missingFile, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// SaveFailureReport persists the mandatory-pass hard failures.
func (s *Store) SaveFailureReport(item *catalog.Item, report *FailureReport) error {
	return s.writeJSON(item, failuresFile, report)
}

// SaveAudio persists the synthesized narration audio.
func (s *Store) SaveAudio(item *catalog.Item, data []byte) error {
	if len(data) == 0 {
		return s.invalid(audioFile, "audio payload is empty")
	}
	path := s.AudioPath(item)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create audio directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), audioFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp audio: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", audioFile, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", audioFile, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", audioFile, err)
	}
	return nil
}

// HasAudio reports whether the narration audio exists and is non-empty.
func (s *Store) HasAudio(item *catalog.Item) bool {
	info, err := os.Stat(s.AudioPath(item))
	return err == nil && info.Size() > 0
}

func (s *Store) writeJSON(item *catalog.Item, name string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	return s.writeFile(item, name, append(data, '\n'))
}

// writeFile writes atomically: temp file in the same directory, then rename.
// A crash mid-write never leaves a half-written artifact behind the
// checkpoint marker.
func (s *Store) writeFile(item *catalog.Item, name string, data []byte) error {
	dir := s.ItemDir(item)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create item directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

func (s *Store) readFile(item *catalog.Item, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.ItemDir(item), name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func (s *Store) readJSON(item *catalog.Item, name string, value any) error {
	data, err := s.readFile(item, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return s.invalid(name, fmt.Sprintf("malformed JSON: %v", err))
	}
	return nil
}

func (s *Store) invalid(name, reason string) error {
	return services.Wrap(services.ErrValidation, "", name, reason, nil)
}
