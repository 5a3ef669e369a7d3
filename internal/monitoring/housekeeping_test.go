package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unifimon/internal/checkapi"
	"unifimon/internal/database"
)

func TestHousekeeperPurgeAll(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t, "")
	_, err := engine.RunHost(ctx, &engine.config.Hosts[0], RunOptions{})
	require.NoError(t, err)

	// a host nobody configures any more and a piggyback host of it
	require.NoError(t, store.UpsertHost(ctx, &database.Host{ID: "old-ctrl", Enabled: true}))
	require.NoError(t, store.UpsertHost(ctx, &database.Host{ID: "uap-old", Source: "old-ctrl", Enabled: true}))
	// a status whose service was not rediscovered
	require.NoError(t, store.UpdateStatus(ctx, &database.Status{HostID: "usw-office", ServiceID: "unifi_device/Temperature", Timestamp: t0}))
	// a stale counter
	require.NoError(t, store.Counters("usw-office").SetValue("if.9.in", checkapi.Counter{Timestamp: t0.Add(-30 * 24 * time.Hour), Value: 1}))

	hk := engine.Housekeeper()
	require.NotNil(t, hk)
	hk.now = func() time.Time { return t0.Add(time.Minute) }
	engine.config.Database.CompactInterval = time.Hour

	report, err := hk.PurgeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Hosts)
	assert.Equal(t, 1, report.Statuses)
	assert.Equal(t, 1, report.Counters)
	assert.True(t, report.Compacted)

	_, err = store.GetHost(ctx, "usw-office")
	assert.NoError(t, err)
	_, err = store.GetHost(ctx, "old-ctrl")
	assert.ErrorIs(t, err, database.ErrNotFound)

	last, found, err := store.GetMeta(ctx, metaLastCompaction)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, last.Equal(t0.Add(time.Minute)))

	report, err = hk.PurgeAll(ctx)
	require.NoError(t, err)
	assert.False(t, report.Compacted, "compaction interval not elapsed")
	assert.Zero(t, report.Hosts)
}

func TestHousekeeperRemovesVanishedPiggybackHosts(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t, "")
	_, err := engine.RunHost(ctx, &engine.config.Hosts[0], RunOptions{})
	require.NoError(t, err)

	hk := engine.Housekeeper()
	hk.now = func() time.Time { return t0.Add(48 * time.Hour) }

	statuses, vanished, err := hk.PurgeStaleStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, statuses)
	assert.Equal(t, 1, vanished)

	_, err = store.GetHost(ctx, "usw-office")
	assert.ErrorIs(t, err, database.ErrNotFound)
	_, err = store.GetHost(ctx, "unifi-ctrl")
	assert.NoError(t, err, "configured hosts stay")
}
