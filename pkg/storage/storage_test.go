package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younsl/ec2stats/internal/models"
	"github.com/younsl/ec2stats/pkg/snapshot"
)

type mockArchiver struct {
	names []string
	err   error
}

func (m *mockArchiver) Archive(_ context.Context, name string, _ []byte) error {
	m.names = append(m.names, name)
	return m.err
}

func fixedStore(dir string, archiver Archiver) *Store {
	s := NewStore(dir, archiver)
	s.Now = func() time.Time { return time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC) }
	return s
}

func TestStore_FileName(t *testing.T) {
	s := fixedStore(t.TempDir(), nil)
	assert.Equal(t, "ec2stats-2024-01-01.json", s.FileName(SnapshotPrefix))
	assert.Equal(t, "ec2summary-2024-01-01.json", s.FileName(SummaryPrefix))
}

func TestStore_FileNameUsesUTC(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	s.Now = func() time.Time {
		return time.Date(2024, 1, 1, 20, 0, 0, 0, time.FixedZone("PST", -8*60*60))
	}
	assert.Equal(t, "ec2stats-2024-01-02.json", s.FileName(SnapshotPrefix))
}

func TestStore_SaveOverwritesSameDay(t *testing.T) {
	dir := t.TempDir()
	s := fixedStore(dir, nil)

	path, err := s.Save(context.Background(), SnapshotPrefix, []byte(`{"first":true}`))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ec2stats-2024-01-01.json"), path)

	_, err = s.Save(context.Background(), SnapshotPrefix, []byte(`{"second":true}`))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"second":true}`, string(data))
}

func TestStore_SaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	s := fixedStore(dir, nil)

	path, err := s.Save(context.Background(), SummaryPrefix, []byte(`{}`))
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestStore_SaveFailureIsPersistenceError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s := fixedStore(filepath.Join(blocker, "sub"), nil)
	_, err := s.Save(context.Background(), SnapshotPrefix, []byte(`{}`))

	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Contains(t, persistErr.Path, "ec2stats-2024-01-01.json")
}

func TestStore_SaveArchives(t *testing.T) {
	archiver := &mockArchiver{}
	s := fixedStore(t.TempDir(), archiver)

	_, err := s.Save(context.Background(), SnapshotPrefix, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"ec2stats-2024-01-01.json"}, archiver.names)
}

func TestStore_ArchiveFailureKeepsLocalFile(t *testing.T) {
	archiver := &mockArchiver{err: errors.New("denied")}
	s := fixedStore(t.TempDir(), archiver)

	path, err := s.Save(context.Background(), SnapshotPrefix, []byte(`{}`))
	require.Error(t, err)
	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.FileExists(t, path)
}

func TestLoadSnapshot_MatchesEncoded(t *testing.T) {
	snap := snapshot.Build([]models.InstanceRecord{{
		Region:       "us-east-1",
		InstanceID:   "i-1",
		InstanceType: "t3.micro",
		State:        "running",
		Tags:         []models.Tag{{Key: "Name", Value: "web"}},
		Stats: []models.Datapoint{
			{Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Average: 1.5, Maximum: 4, Unit: "Percent"},
		},
	}}, "0123456789abcdef", models.Threshold{})
	data, err := snapshot.Encode(snap)
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := fixedStore(dir, nil).Save(context.Background(), SnapshotPrefix, data)
	require.NoError(t, err)
	assert.Equal(t, "ec2stats-2024-01-01.json", filepath.Base(path))

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
}

func TestLoadSnapshot_MissingFile(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "ec2stats-2024-01-01.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadSnapshot_InvalidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ec2stats-2024-01-01.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Instances":[]}`), 0o644))

	_, err := LoadSnapshot(path)
	var decodeErr *snapshot.DecodeError
	require.ErrorAs(t, err, &decodeErr)
}
