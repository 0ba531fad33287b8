package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecordTiming(t *testing.T) {
	c := NewCollector()

	c.RecordTiming(OpReply, 100*time.Millisecond)
	c.RecordTiming(OpReply, 300*time.Millisecond)

	snap := c.Snapshot()
	require.NotNil(t, snap.Reply)
	assert.Equal(t, int64(2), snap.Reply.Count)
	assert.Equal(t, int64(400), snap.Reply.TotalTimeMs)
	assert.InDelta(t, 200.0, snap.Reply.AvgTimeMs, 0.001)
	assert.Equal(t, int64(100), snap.Reply.MinTimeMs)
	assert.Equal(t, int64(300), snap.Reply.MaxTimeMs)

	assert.Nil(t, snap.EmailSend, "unused operations are omitted")
}

func TestCollectorRecordError(t *testing.T) {
	c := NewCollector()
	c.RecordError(OpEmailSend)

	snap := c.Snapshot()
	require.NotNil(t, snap.EmailSend)
	assert.Equal(t, int64(1), snap.EmailSend.Errors)
	assert.Zero(t, snap.EmailSend.Count)
	assert.Zero(t, snap.EmailSend.MinTimeMs)
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordTiming(OpHTTPRequest, time.Millisecond)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), c.Snapshot().HTTPRequest.Count)
}
