// Package audit keeps a tamper-evident, hash-chained record of evaluations
// and requests.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// GenesisHash is the previous hash of the first entry in a chain.
var GenesisHash = strings.Repeat("0", 64)

// LogEntry is one link of the chain.
type LogEntry struct {
	Seq          uint64 `json:"seq"`
	Timestamp    string `json:"timestamp"`
	PreviousHash string `json:"previous_hash"`
	Payload      string `json:"payload"`
	Hash         string `json:"hash"`
}

// Options configures a ChainLogger. A nil Sink keeps the chain in memory
// only; Retain bounds the in-memory tail (0 means 1000).
type Options struct {
	Sink   io.Writer
	Retain int
	Now    func() time.Time
}

// ChainLogger appends entries whose hash covers the previous entry's hash,
// so editing or dropping any entry breaks every later link.
type ChainLogger struct {
	mu           sync.Mutex
	previousHash string
	seq          uint64
	tail         []*LogEntry
	retain       int
	sink         io.Writer
	now          func() time.Time
}

// NewChainLogger creates an in-memory chain starting at GenesisHash.
func NewChainLogger() *ChainLogger {
	return NewChainLoggerWithOptions(Options{})
}

func NewChainLoggerWithOptions(opts Options) *ChainLogger {
	if opts.Retain <= 0 {
		opts.Retain = 1000
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ChainLogger{
		previousHash: GenesisHash,
		retain:       opts.Retain,
		sink:         opts.Sink,
		now:          opts.Now,
	}
}

// Append adds a raw payload to the chain. When a sink is configured the
// entry is written to it as one JSON line; sink failures do not break the
// chain itself.
func (c *ChainLogger) Append(payload string) *LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	entry := &LogEntry{
		Seq:          c.seq,
		Timestamp:    c.now().UTC().Format(time.RFC3339Nano),
		PreviousHash: c.previousHash,
		Payload:      payload,
	}
	entry.Hash = entryHash(entry.PreviousHash, entry.Timestamp, entry.Payload)
	c.previousHash = entry.Hash

	if len(c.tail) >= c.retain {
		c.tail = c.tail[1:]
	}
	c.tail = append(c.tail, entry)

	if c.sink != nil {
		if line, err := json.Marshal(entry); err == nil {
			_, _ = c.sink.Write(append(line, '\n'))
		}
	}
	return entry
}

// Record appends v encoded as JSON under the given event name.
func (c *ChainLogger) Record(event string, v any) (*LogEntry, error) {
	body, err := json.Marshal(struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}{event, v})
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit payload: %w", err)
	}
	return c.Append(string(body)), nil
}

// Entries returns a copy of the retained tail, oldest first.
func (c *ChainLogger) Entries() []*LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*LogEntry, len(c.tail))
	for i, e := range c.tail {
		cp := *e
		out[i] = &cp
	}
	return out
}

// Head returns the hash of the most recent entry.
func (c *ChainLogger) Head() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.previousHash
}

// VerifyChain checks that entries form an unbroken chain. The first entry's
// previous hash is taken as given, so a retained tail verifies too.
func VerifyChain(entries []*LogEntry) error {
	for i, entry := range entries {
		if i > 0 && entry.PreviousHash != entries[i-1].Hash {
			return fmt.Errorf("entry %d: broken link to previous entry", entry.Seq)
		}
		if entryHash(entry.PreviousHash, entry.Timestamp, entry.Payload) != entry.Hash {
			return fmt.Errorf("entry %d: hash mismatch", entry.Seq)
		}
	}
	return nil
}

func entryHash(prev, ts, payload string) string {
	sum := sha256.Sum256([]byte(prev + "|" + ts + "|" + payload))
	return hex.EncodeToString(sum[:])
}
