package event

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/osse101/SmartList_Go/internal/logger"
)

// DeadLetterSchemaVersion tags each dead-letter line
const DeadLetterSchemaVersion = "1.0"

// DeadLetterEntry is one event that ran out of publish attempts
type DeadLetterEntry struct {
	SchemaVersion string    `json:"schema_version"`
	Timestamp     time.Time `json:"timestamp"`
	Identity      string    `json:"identity,omitempty"`
	Event         Event     `json:"event"`
	Attempts      int       `json:"attempts"`
	LastError     string    `json:"last_error,omitempty"`
}

// DeadLetterWriter appends JSONL entries to a file
type DeadLetterWriter struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
}

// NewDeadLetterWriter opens path for appending, creating it when missing
func NewDeadLetterWriter(path string) (*DeadLetterWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, DeadLetterFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("open dead-letter file: %w", err)
	}
	return &DeadLetterWriter{file: f, now: time.Now}, nil
}

// Write records evt with the number of attempts spent on it
func (w *DeadLetterWriter) Write(evt Event, attempts int, lastErr error) error {
	identity, _ := evt.GetMetadataValue(MetadataKeyIdentity).(string)
	logger.Warn(LogMsgEventDeadLettered,
		"event_type", evt.Type,
		"identity", identity,
		"attempts", attempts,
		"error", lastErr)

	entry := DeadLetterEntry{
		SchemaVersion: DeadLetterSchemaVersion,
		Identity:      identity,
		Event:         evt,
		Attempts:      attempts,
	}
	if lastErr != nil {
		entry.LastError = lastErr.Error()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	entry.Timestamp = w.now().UTC()
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = w.file.Write(append(line, '\n'))
	return err
}

// Close closes the underlying file
func (w *DeadLetterWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// ReadDeadLetters parses a dead-letter file. Payloads come back as generic
// JSON values; use DecodePayload to get the typed form.
func ReadDeadLetters(path string) ([]DeadLetterEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []DeadLetterEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), DeadLetterMaxLineBytes)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var entry DeadLetterEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return entries, fmt.Errorf("dead-letter line %d: %w", len(entries)+1, err)
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}
