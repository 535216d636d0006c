package gamelog

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// replayVersion is bumped whenever Frame changes shape.
const replayVersion = 1

// Frame is one recorded transition: what happened and how the board looked
// to each seat afterwards. Values are stored as text so replays stay portable.
type Frame struct {
	Index   int
	Kind    TurnKind
	Player  string
	Action  string
	Params  map[string]string
	Records []string
	Views   map[string]string
	At      time.Time
}

// Replay is a recorded game that can be stepped through.
type Replay struct {
	GameID       string
	Game         string
	Frames       []*Frame
	CurrentIndex int
	mu           sync.RWMutex
}

// NewReplay creates an empty replay.
func NewReplay(gameID, game string) *Replay {
	return &Replay{
		GameID: gameID,
		Game:   game,
		Frames: make([]*Frame, 0),
	}
}

// Record appends a frame.
func (r *Replay) Record(frame *Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Frames = append(r.Frames, frame)
}

// Start rewinds to the first frame.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.CurrentIndex = 0
}

// Next returns the frame at the cursor and advances it, or nil at the end.
func (r *Replay) Next() *Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex < len(r.Frames) {
		frame := r.Frames[r.CurrentIndex]
		r.CurrentIndex++
		return frame
	}
	return nil
}

// Previous moves the cursor back and returns that frame, or nil at the start.
func (r *Replay) Previous() *Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		return r.Frames[r.CurrentIndex]
	}
	return nil
}

// Skip moves the cursor by count frames, clamped to the recording.
func (r *Replay) Skip(count int) *Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	newIndex := r.CurrentIndex + count
	if newIndex >= len(r.Frames) {
		newIndex = len(r.Frames) - 1
	}
	if newIndex < 0 {
		newIndex = 0
	}

	r.CurrentIndex = newIndex
	if r.CurrentIndex < len(r.Frames) {
		return r.Frames[r.CurrentIndex]
	}
	return nil
}

// Size returns the number of frames.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.Frames)
}

// FrameAt returns the frame at index, or nil.
func (r *Replay) FrameAt(index int) *Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.Frames) {
		return r.Frames[index]
	}
	return nil
}

type replayMetadata struct {
	GameID     string
	Game       string
	Timestamp  time.Time
	Version    int
	FrameCount int
}

// ReplayPath is where a replay of gameID lives under directory.
func ReplayPath(directory, gameID string) string {
	return filepath.Join(directory, fmt.Sprintf("%s.replay", gameID))
}

// SaveToFile writes the replay as gzipped gob under directory.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(ReplayPath(directory, r.GameID))
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	encoder := gob.NewEncoder(gzipWriter)

	metadata := replayMetadata{
		GameID:     r.GameID,
		Game:       r.Game,
		Timestamp:  time.Now(),
		Version:    replayVersion,
		FrameCount: len(r.Frames),
	}
	if err := encoder.Encode(&metadata); err != nil {
		gzipWriter.Close()
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	for i, frame := range r.Frames {
		if err := encoder.Encode(frame); err != nil {
			gzipWriter.Close()
			return fmt.Errorf("failed to encode frame %d: %w", i, err)
		}
	}

	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush replay: %w", err)
	}
	return nil
}

// LoadReplayFromFile reads the replay of gameID from directory.
func LoadReplayFromFile(directory, gameID string) (*Replay, error) {
	file, err := os.Open(ReplayPath(directory, gameID))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	replay := NewReplay(metadata.GameID, metadata.Game)
	for i := 0; i < metadata.FrameCount; i++ {
		var frame Frame
		if err := decoder.Decode(&frame); err != nil {
			return nil, fmt.Errorf("failed to decode frame %d: %w", i, err)
		}
		replay.Frames = append(replay.Frames, &frame)
	}
	return replay, nil
}

// frameFromTurn flattens a logged turn for the replay.
func frameFromTurn(t TurnRecord) *Frame {
	f := &Frame{
		Index:  t.Index,
		Kind:   t.Kind,
		Player: t.Player,
		Action: t.Action,
		Views:  t.Views,
		At:     t.At,
	}
	if len(t.Params) > 0 {
		f.Params = make(map[string]string, len(t.Params))
		for k, v := range t.Params {
			f.Params[k] = fmt.Sprint(v)
		}
	}
	for _, rec := range t.Records {
		f.Records = append(f.Records, formatRecord(rec))
	}
	return f
}

// formatRecord renders a flattened history record as "player type k=v ..." with sorted keys.
func formatRecord(rec map[string]any) string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		if k != "type" && k != "player" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := fmt.Sprintf("%v %v", rec["player"], rec["type"])
	for _, k := range keys {
		out += fmt.Sprintf(" %s=%v", k, rec[k])
	}
	return out
}
