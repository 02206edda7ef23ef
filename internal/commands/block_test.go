package commands

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/warden/internal/state"
)

func TestBlockSetAndClear(t *testing.T) {
	dir := useTempDirs(t)
	store := state.NewStore(filepath.Join(dir, "sessions"))

	cmd := NewBlockCmd()
	cmd.SetArgs([]string{"set", "--session", "sess-b", "--reason", "manual audit"})
	require.NoError(t, cmd.Execute())

	st := store.Read("sess-b")
	require.NotNil(t, st.HardBlock)
	require.Equal(t, "manual audit", st.HardBlock.Reason)
	require.False(t, st.HardBlock.SetAt.IsZero())

	cmd = NewBlockCmd()
	cmd.SetArgs([]string{"clear", "--session", "sess-b"})
	require.NoError(t, cmd.Execute())

	st = store.Read("sess-b")
	require.Nil(t, st.HardBlock)
}

func TestBlockSet_RequiresReason(t *testing.T) {
	useTempDirs(t)

	cmd := NewBlockCmd()
	cmd.SetArgs([]string{"set", "--session", "sess-b"})
	require.Error(t, cmd.Execute())
}

func TestBlockStatus(t *testing.T) {
	dir := useTempDirs(t)
	store := state.NewStore(filepath.Join(dir, "sessions"))
	_, err := store.SetHardBlock("sess-s", "why")
	require.NoError(t, err)

	cmd := NewBlockCmd()
	cmd.SetArgs([]string{"status", "--session", "sess-s"})
	require.NoError(t, cmd.Execute())
}

func TestCheckRecord_ResetsActivityCount(t *testing.T) {
	dir := useTempDirs(t)
	store := state.NewStore(filepath.Join(dir, "sessions"))

	_, err := store.AtomicUpdate("sess-c", func(st *state.SessionState) {
		st.ActivityCount = 9
	})
	require.NoError(t, err)

	cmd := NewCheckCmd()
	cmd.SetArgs([]string{"record", "--session", "sess-c"})
	require.NoError(t, cmd.Execute())

	st := store.Read("sess-c")
	require.Equal(t, 0, st.ActivityCount)
	require.False(t, st.LastCheckAt.IsZero())
}
