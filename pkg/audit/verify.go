package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// ReadLog decodes a JSON-lines audit log as written by a ChainLogger sink.
// Each process starts a new chain at GenesisHash, so the log is returned as
// one segment per chain.
func ReadLog(r io.Reader) ([][]*LogEntry, error) {
	var segments [][]*LogEntry
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e LogEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(segments) == 0 || (e.Seq == 1 && e.PreviousHash == GenesisHash) {
			segments = append(segments, nil)
		}
		segments[len(segments)-1] = append(segments[len(segments)-1], &e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	return segments, nil
}

// VerifyLog reads an audit log and verifies every chain in it. It returns
// the number of chains and entries checked.
func VerifyLog(r io.Reader) (chains, entries int, err error) {
	segments, err := ReadLog(r)
	if err != nil {
		return 0, 0, err
	}
	for i, seg := range segments {
		if err := VerifyChain(seg); err != nil {
			return i, entries, fmt.Errorf("chain %d: %w", i+1, err)
		}
		entries += len(seg)
	}
	return len(segments), entries, nil
}
