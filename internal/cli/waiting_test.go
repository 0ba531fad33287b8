package cli

import (
	"errors"
	"io"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/knowbot/internal/client"
)

func newTestWaitModel() waitModel {
	return newWaitModel(&printer{w: io.Discard, theme: defaultTheme}, "Waiting", nil)
}

func TestWaitModelQuitsWhenReplyArrives(t *testing.T) {
	res := &client.AskResult{}

	next, cmd := newTestWaitModel().Update(askDoneMsg{res: res})
	m := next.(waitModel)

	assert.True(t, m.done)
	assert.False(t, m.quitting)
	assert.Same(t, res, m.res)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWaitModelKeepsAskError(t *testing.T) {
	next, _ := newTestWaitModel().Update(askDoneMsg{err: client.ErrReplyFailed})
	m := next.(waitModel)

	assert.True(t, m.done)
	assert.True(t, errors.Is(m.err, client.ErrReplyFailed))
}

func TestWaitModelStopsOnKeyPress(t *testing.T) {
	next, cmd := newTestWaitModel().Update(tea.KeyPressMsg{Code: 'q', Text: "q"})
	m := next.(waitModel)

	assert.True(t, m.quitting)
	assert.False(t, m.done)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWaitModelIgnoresOtherKeys(t *testing.T) {
	next, cmd := newTestWaitModel().Update(tea.KeyPressMsg{Code: 'x', Text: "x"})
	m := next.(waitModel)

	assert.False(t, m.quitting)
	assert.Nil(t, cmd)
}
