package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNoOpSweeper(t *testing.T) {
	sw := New(context.Background(), nil, discardLogger(), nil, nil)
	require.IsType(t, &NoOpSweeper{}, sw)

	sw.Nudge()
	require.NoError(t, sw.ForceSweep(time.Second))

	sweeps, expired, demoted, evicted := sw.Metrics()
	require.Zero(t, sweeps)
	require.Zero(t, expired)
	require.Zero(t, demoted)
	require.Zero(t, evicted)

	require.NoError(t, sw.Close())
}
