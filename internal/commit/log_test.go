package commit_test

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypher-asi/zero-os-sub001/internal/commit"
)

func TestAppendChainsHashes(t *testing.T) {
	sink := commit.NewMemSink()
	boot, _ := uuid.NewV4()
	log := commit.New(sink, boot)

	payload, err := commit.EncodePayload(commit.ProcessCreatedPayload{PID: 1, Name: "init"})
	require.NoError(t, err)

	r1, err := log.Append(commit.ProcessCreated, 1, payload)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), r1.Seq)

	r2, err := log.Append(commit.SysEventExit, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r2.Seq)
	assert.Equal(t, r1.Hash, r2.PrevHash)

	records, err := sink.Records()
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.NoError(t, commit.VerifyChain(records))
}

func TestVerifyChainDetectsTamper(t *testing.T) {
	sink := commit.NewMemSink()
	boot, _ := uuid.NewV4()
	log := commit.New(sink, boot)

	_, err := log.Append(commit.SysEventEntry, 1, nil)
	require.NoError(t, err)
	_, err = log.Append(commit.SysEventExit, 1, nil)
	require.NoError(t, err)

	records, err := sink.Records()
	require.NoError(t, err)

	records[0].EventID = 99 // tamper
	assert.Error(t, commit.VerifyChain(records))
}

func TestPayloadRoundTrip(t *testing.T) {
	want := commit.CapInsertedPayload{PID: 3, Slot: 2}
	raw, err := commit.EncodePayload(want)
	require.NoError(t, err)

	var got commit.CapInsertedPayload
	require.NoError(t, commit.DecodePayload(raw, &got))
	assert.Equal(t, want, got)
}
