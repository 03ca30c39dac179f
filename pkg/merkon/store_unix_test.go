//go:build unix

package merkon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Locked(t *testing.T) {
	ctx := context.Background()
	owner, path := openTemp(t)

	_, err := Open(ctx, path)
	assert.ErrorIs(t, err, ErrLocked)

	unlocked, err := Open(ctx, path, WithLock(false))
	require.NoError(t, err)
	require.NoError(t, unlocked.Close())

	require.NoError(t, owner.Close())
	again, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}
