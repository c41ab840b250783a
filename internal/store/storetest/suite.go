// Package storetest runs the store contract against any store.Store backend.
package storetest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avatar-chat/internal/domain"
	"avatar-chat/internal/models"
	"avatar-chat/internal/store"
)

// Factory returns a fresh, empty store built with opts
type Factory func(t *testing.T, opts ...store.Option) store.Store

// Run executes every contract test against the backend produced by newStore
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateAvatar", func(t *testing.T) { testCreateAvatar(t, newStore) })
	t.Run("CreateAvatarRejectsBlankName", func(t *testing.T) { testCreateAvatarRejectsBlankName(t, newStore) })
	t.Run("CreateAvatarRejectsLongName", func(t *testing.T) { testCreateAvatarRejectsLongName(t, newStore) })
	t.Run("DeleteAvatarIsIdempotent", func(t *testing.T) { testDeleteAvatarIsIdempotent(t, newStore) })
	t.Run("DeleteUnknownAvatar", func(t *testing.T) { testDeleteUnknownAvatar(t, newStore) })
	t.Run("DeleteRemovesThreadAndFiles", func(t *testing.T) { testDeleteRemovesThreadAndFiles(t, newStore) })
	t.Run("AttachFilesPartitions", func(t *testing.T) { testAttachFilesPartitions(t, newStore) })
	t.Run("AttachFilesAppends", func(t *testing.T) { testAttachFilesAppends(t, newStore) })
	t.Run("AttachFilesUniqueIDs", func(t *testing.T) { testAttachFilesUniqueIDs(t, newStore) })
	t.Run("AttachFilesUnknownAvatar", func(t *testing.T) { testAttachFilesUnknownAvatar(t, newStore) })
	t.Run("AttachFilesInvalidBatch", func(t *testing.T) { testAttachFilesInvalidBatch(t, newStore) })
	t.Run("AppendMessageOrder", func(t *testing.T) { testAppendMessageOrder(t, newStore) })
	t.Run("AppendMessageUnknownAvatar", func(t *testing.T) { testAppendMessageUnknownAvatar(t, newStore) })
	t.Run("AppendMessageInvalidSender", func(t *testing.T) { testAppendMessageInvalidSender(t, newStore) })
	t.Run("ListAvatarsInsertionOrder", func(t *testing.T) { testListAvatarsInsertionOrder(t, newStore) })
	t.Run("ReadsAreSnapshots", func(t *testing.T) { testReadsAreSnapshots(t, newStore) })
	t.Run("Scenario", func(t *testing.T) { testScenario(t, newStore) })
}

// SequentialIDs returns a generator producing prefix-1, prefix-2, ...
func SequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func requireStats(t *testing.T, s store.Store, avatars, threads int) {
	t.Helper()
	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, avatars, stats.Avatars, "avatar count")
	assert.Equal(t, threads, stats.Threads, "thread count")
}

func fileIDs(files []models.FileRef) []string {
	ids := make([]string, len(files))
	for i, f := range files {
		ids[i] = f.ID
	}
	return ids
}

func mustCreate(t *testing.T, s store.Store, name string) *models.Avatar {
	t.Helper()
	avatar, err := s.CreateAvatar(name, "", "")
	require.NoError(t, err)
	return avatar
}

func testCreateAvatar(t *testing.T, newStore Factory) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newStore(t, store.WithClock(func() time.Time { return created }))

	avatar, err := s.CreateAvatar("  Ada  ", "Mathematician", "file:///tmp/ada.jpg")
	require.NoError(t, err)

	assert.NotEmpty(t, avatar.ID)
	assert.Equal(t, "Ada", avatar.Name)
	assert.Equal(t, "Mathematician", avatar.Description)
	assert.Equal(t, "file:///tmp/ada.jpg", avatar.PortraitRef)
	assert.Empty(t, avatar.Documents)
	assert.Empty(t, avatar.Images)
	assert.True(t, avatar.CreatedAt.Equal(created))

	thread, err := s.GetThread(avatar.ID)
	require.NoError(t, err)
	assert.Len(t, thread, 0)

	got, err := s.GetAvatar(avatar.ID)
	require.NoError(t, err)
	assert.Equal(t, avatar.ID, got.ID)
	assert.Equal(t, "Ada", got.Name)

	requireStats(t, s, 1, 1)
}

func testCreateAvatarRejectsBlankName(t *testing.T, newStore Factory) {
	s := newStore(t)
	mustCreate(t, s, "Existing")

	for _, name := range []string{"", "   ", "\t\n"} {
		avatar, err := s.CreateAvatar(name, "desc", "")
		assert.Nil(t, avatar)
		assert.ErrorIs(t, err, domain.ErrValidation, "name %q", name)
	}

	requireStats(t, s, 1, 1)
}

func testCreateAvatarRejectsLongName(t *testing.T, newStore Factory) {
	s := newStore(t)

	_, err := s.CreateAvatar(strings.Repeat("a", store.MaxNameLength+1), "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.CreateAvatar(strings.Repeat("é", store.MaxNameLength), "", "")
	assert.NoError(t, err)

	requireStats(t, s, 1, 1)
}

func testDeleteAvatarIsIdempotent(t *testing.T, newStore Factory) {
	s := newStore(t)
	avatar := mustCreate(t, s, "ToDelete")

	require.NoError(t, s.DeleteAvatar(avatar.ID))
	require.NoError(t, s.DeleteAvatar(avatar.ID))

	requireStats(t, s, 0, 0)
}

func testDeleteUnknownAvatar(t *testing.T, newStore Factory) {
	s := newStore(t)
	mustCreate(t, s, "Keep")

	assert.NoError(t, s.DeleteAvatar("xyz"))

	requireStats(t, s, 1, 1)
}

func testDeleteRemovesThreadAndFiles(t *testing.T, newStore Factory) {
	s := newStore(t)
	avatar := mustCreate(t, s, "Gone")
	keep := mustCreate(t, s, "Keep")

	_, err := s.AttachFiles(avatar.ID, []models.FileDescriptor{{Name: "a.pdf", MimeType: "application/pdf"}})
	require.NoError(t, err)
	_, err = s.AppendMessage(avatar.ID, models.Message{Content: "hi", Sender: models.SenderTypeUser})
	require.NoError(t, err)

	require.NoError(t, s.DeleteAvatar(avatar.ID))

	_, err = s.GetAvatar(avatar.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetThread(avatar.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	avatars, err := s.ListAvatars()
	require.NoError(t, err)
	require.Len(t, avatars, 1)
	assert.Equal(t, keep.ID, avatars[0].ID)

	requireStats(t, s, 1, 1)
}

func testAttachFilesPartitions(t *testing.T, newStore Factory) {
	s := newStore(t)
	avatar := mustCreate(t, s, "Files")

	result, err := s.AttachFiles(avatar.ID, []models.FileDescriptor{
		{Name: "item0.png", MimeType: "image/png", SizeBytes: 10, ContentRef: "file:///item0.png"},
		{Name: "item1.pdf", MimeType: "application/pdf", SizeBytes: 20},
		{Name: "item2", MimeType: ""},
	})
	require.NoError(t, err)

	require.Len(t, result.Images, 1)
	assert.Equal(t, "item0.png", result.Images[0].Name)
	assert.Equal(t, "file:///item0.png", result.Images[0].ContentRef)
	assert.EqualValues(t, 10, result.Images[0].SizeBytes)

	require.Len(t, result.Documents, 2)
	assert.Equal(t, "item1.pdf", result.Documents[0].Name)
	assert.Equal(t, "item2", result.Documents[1].Name)

	require.NotNil(t, result.Avatar)
	assert.Len(t, result.Avatar.Images, 1)
	assert.Len(t, result.Avatar.Documents, 2)

	stored, err := s.GetAvatar(avatar.ID)
	require.NoError(t, err)
	assert.Equal(t, fileIDs(result.Avatar.Documents), fileIDs(stored.Documents))
	assert.Equal(t, fileIDs(result.Avatar.Images), fileIDs(stored.Images))
}

func testAttachFilesAppends(t *testing.T, newStore Factory) {
	s := newStore(t)
	avatar := mustCreate(t, s, "Appender")

	_, err := s.AttachFiles(avatar.ID, []models.FileDescriptor{{Name: "first.txt", MimeType: "text/plain"}})
	require.NoError(t, err)
	result, err := s.AttachFiles(avatar.ID, []models.FileDescriptor{
		{Name: "second.txt", MimeType: "text/plain"},
		{Name: "third.jpg", MimeType: "image/jpeg"},
	})
	require.NoError(t, err)

	assert.Len(t, result.Documents, 1)
	assert.Len(t, result.Images, 1)

	names := make([]string, 0)
	for _, d := range result.Avatar.Documents {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"first.txt", "second.txt"}, names)
	assert.Len(t, result.Avatar.Images, 1)
}

func testAttachFilesUniqueIDs(t *testing.T, newStore Factory) {
	s := newStore(t)
	first := mustCreate(t, s, "First")
	second := mustCreate(t, s, "Second")

	batch := []models.FileDescriptor{
		{Name: "same.png", MimeType: "image/png"},
		{Name: "same.png", MimeType: "image/png"},
		{Name: "same.pdf", MimeType: "application/pdf"},
	}
	r1, err := s.AttachFiles(first.ID, batch)
	require.NoError(t, err)
	r2, err := s.AttachFiles(second.ID, batch)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, f := range append(r1.Files(), r2.Files()...) {
		assert.NotEmpty(t, f.ID)
		assert.False(t, seen[f.ID], "duplicate file id %s", f.ID)
		seen[f.ID] = true
	}
	assert.Len(t, seen, 6)
}

func testAttachFilesUnknownAvatar(t *testing.T, newStore Factory) {
	s := newStore(t)

	result, err := s.AttachFiles("missing", []models.FileDescriptor{{Name: "a.txt"}})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testAttachFilesInvalidBatch(t *testing.T, newStore Factory) {
	s := newStore(t)
	avatar := mustCreate(t, s, "Strict")

	_, err := s.AttachFiles(avatar.ID, []models.FileDescriptor{
		{Name: "ok.txt", MimeType: "text/plain"},
		{Name: "", MimeType: "image/png"},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.AttachFiles(avatar.ID, []models.FileDescriptor{{Name: "neg.bin", SizeBytes: -1}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	stored, err := s.GetAvatar(avatar.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Documents)
	assert.Empty(t, stored.Images)
}

func testAppendMessageOrder(t *testing.T, newStore Factory) {
	s := newStore(t)
	avatar := mustCreate(t, s, "Ordered")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	const n = 5
	for i := range n {
		// Timestamps go backwards on purpose; order must follow the calls.
		_, err := s.AppendMessage(avatar.ID, models.Message{
			Content:   fmt.Sprintf("message %d", i),
			Sender:    models.SenderTypeUser,
			Timestamp: base.Add(time.Duration(n-i) * time.Hour),
		})
		require.NoError(t, err)
	}

	thread, err := s.GetThread(avatar.ID)
	require.NoError(t, err)
	require.Len(t, thread, n)
	for i, msg := range thread {
		assert.Equal(t, fmt.Sprintf("message %d", i), msg.Content)
		assert.NotEmpty(t, msg.ID)
	}
}

func testAppendMessageUnknownAvatar(t *testing.T, newStore Factory) {
	s := newStore(t)

	thread, err := s.AppendMessage("missing", models.Message{Content: "hi", Sender: models.SenderTypeUser})
	assert.Nil(t, thread)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	requireStats(t, s, 0, 0)
}

func testAppendMessageInvalidSender(t *testing.T, newStore Factory) {
	s := newStore(t)
	avatar := mustCreate(t, s, "Sender")

	_, err := s.AppendMessage(avatar.ID, models.Message{Content: "hi", Sender: "robot"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = s.AppendMessage(avatar.ID, models.Message{Content: "hi"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	thread, err := s.GetThread(avatar.ID)
	require.NoError(t, err)
	assert.Empty(t, thread)
}

func testListAvatarsInsertionOrder(t *testing.T, newStore Factory) {
	// A clock running backwards makes sure order doesn't come from CreatedAt.
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newStore(t, store.WithClock(func() time.Time {
		now = now.Add(-time.Minute)
		return now
	}))

	names := []string{"Zed", "Amy", "Mia", "Bob"}
	for _, name := range names {
		mustCreate(t, s, name)
	}
	middle, err := s.ListAvatars()
	require.NoError(t, err)
	require.NoError(t, s.DeleteAvatar(middle[1].ID))
	mustCreate(t, s, "Ann")

	avatars, err := s.ListAvatars()
	require.NoError(t, err)
	got := make([]string, len(avatars))
	for i, a := range avatars {
		got[i] = a.Name
	}
	assert.Equal(t, []string{"Zed", "Mia", "Bob", "Ann"}, got)

	again, err := s.ListAvatars()
	require.NoError(t, err)
	require.Len(t, again, len(avatars))
	for i := range avatars {
		assert.Equal(t, avatars[i].ID, again[i].ID)
	}
}

func testReadsAreSnapshots(t *testing.T, newStore Factory) {
	s := newStore(t)
	avatar := mustCreate(t, s, "Snapshot")
	_, err := s.AttachFiles(avatar.ID, []models.FileDescriptor{{Name: "a.png", MimeType: "image/png"}})
	require.NoError(t, err)
	_, err = s.AppendMessage(avatar.ID, models.Message{Content: "hi", Sender: models.SenderTypeUser})
	require.NoError(t, err)

	got, err := s.GetAvatar(avatar.ID)
	require.NoError(t, err)
	got.Name = "Changed"
	got.Images[0].Name = "changed.png"

	thread, err := s.GetThread(avatar.ID)
	require.NoError(t, err)
	thread[0].Content = "changed"

	again, err := s.GetAvatar(avatar.ID)
	require.NoError(t, err)
	assert.Equal(t, "Snapshot", again.Name)
	assert.Equal(t, "a.png", again.Images[0].Name)

	threadAgain, err := s.GetThread(avatar.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", threadAgain[0].Content)
}

func testScenario(t *testing.T, newStore Factory) {
	s := newStore(t)

	ada, err := s.CreateAvatar("Ada", "", "")
	require.NoError(t, err)

	_, err = s.AttachFiles(ada.ID, []models.FileDescriptor{
		{Name: "p.png", MimeType: "image/png"},
		{Name: "d.pdf", MimeType: "application/pdf"},
	})
	require.NoError(t, err)

	_, err = s.AppendMessage(ada.ID, models.Message{Content: "hi", Sender: models.SenderTypeUser})
	require.NoError(t, err)
	thread, err := s.AppendMessage(ada.ID, models.Message{Content: "hello", Sender: models.SenderTypeAvatar})
	require.NoError(t, err)
	assert.Len(t, thread, 2)

	got, err := s.GetAvatar(ada.ID)
	require.NoError(t, err)
	assert.Len(t, got.Images, 1)
	assert.Len(t, got.Documents, 1)

	require.NoError(t, s.DeleteAvatar("xyz"))
	requireStats(t, s, 1, 1)
}
