package audit

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyLogAcrossRestarts(t *testing.T) {
	var sink bytes.Buffer

	first := NewChainLoggerWithOptions(Options{Sink: &sink})
	first.Append("a")
	first.Append("b")

	second := NewChainLoggerWithOptions(Options{Sink: &sink})
	second.Append("c")

	chains, entries, err := VerifyLog(bytes.NewReader(sink.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 2, chains)
	assert.Equal(t, 3, entries)
}

func TestVerifyLogDetectsTampering(t *testing.T) {
	var sink bytes.Buffer
	logger := NewChainLoggerWithOptions(Options{Sink: &sink})
	logger.Append(`{"event":"liquidity_evaluated","data":{"action":"HOLD"}}`)
	logger.Append("next")

	tampered := strings.Replace(sink.String(), `\"HOLD\"`, `\"RELEASE\"`, 1)
	require.NotEqual(t, sink.String(), tampered)

	_, _, err := VerifyLog(strings.NewReader(tampered))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chain 1: entry 1: hash mismatch")
}

func TestReadLogRejectsGarbage(t *testing.T) {
	_, err := ReadLog(strings.NewReader("{\"seq\":1}\nnot json\n"))
	require.ErrorContains(t, err, "line 2")
}
