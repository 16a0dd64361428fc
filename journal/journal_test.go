package journal

import (
	"context"
	"testing"
	"time"

	"github.com/aiseeq/s2l/protocol/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LostLucidity/lucid-ai-sub002/config"
	"github.com/LostLucidity/lucid-ai-sub002/ipc"
)

func TestRecordAndLoadSession(t *testing.T) {
	db, err := Open(config.JournalConfig{Type: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	defer Close(db)

	ctx := context.Background()
	j := New(db, "s-1")
	j.now = func() time.Time { return time.Unix(1700000000, 0) }

	cmds := []ipc.UnitCommand{
		{AbilityID: 1006, UnitTags: []api.UnitTag{1}},
		{AbilityID: 319, UnitTags: []api.UnitTag{10, 11}, TargetPos: &api.Point2D{X: 60, Y: 60}},
		{AbilityID: 3666, UnitTags: []api.UnitTag{12}, TargetTag: 77},
	}
	require.NoError(t, j.RecordCommands(ctx, 224, "terran", "terran-beginner", cmds))
	require.NoError(t, j.RecordNote(ctx, 300, KindPlan, "terran", "terran-bunker", "outpowered"))
	require.NoError(t, New(db, "s-2").RecordNote(ctx, 1, KindEvent, "zerg", "", "townhall_lost"))

	got, err := Session(ctx, db, "s-1")
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, KindCommand, got[0].Kind)
	assert.Equal(t, uint32(1006), got[0].AbilityID)
	assert.Equal(t, "1", got[0].UnitTags)
	assert.Equal(t, "10,11", got[1].UnitTags)
	assert.Equal(t, "pos=60.0,60.0", got[1].Detail)
	assert.Equal(t, "tag=77", got[2].Detail)
	assert.Equal(t, 2, got[2].Step)
	assert.Equal(t, KindPlan, got[3].Kind)
	assert.Equal(t, "terran-bunker", got[3].Plan)
	assert.Equal(t, uint32(300), got[3].GameLoop)
}

func TestRecordCommandsEmpty(t *testing.T) {
	db, err := Open(config.JournalConfig{Type: "sqlite"})
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, New(db, "s").RecordCommands(context.Background(), 1, "protoss", "", nil))
	got, err := Session(context.Background(), db, "s")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open(config.JournalConfig{Type: "mysql"})
	assert.ErrorContains(t, err, "unsupported journal type")
}
