package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/uslugi_go_server/internal/repository"
	"github.com/qs3c/uslugi_go_server/internal/testutil"
)

func setupNotificationService(t *testing.T) (*NotificationService, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	return NewNotificationService(repository.NewNotificationRepository(db), nil), db
}

func TestNotificationService_NotifyAndList(t *testing.T) {
	svc, db := setupNotificationService(t)

	user := testutil.TestMaster(t, db)
	other := testutil.TestMaster(t, db)

	require.NoError(t, svc.Notify(user.ID, "first"))
	require.NoError(t, svc.Notify(user.ID, "second"))
	require.NoError(t, svc.Notify(other.ID, "not yours"))

	list, err := svc.List(user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[0].IsRead)
}

func TestNotificationService_MarkRead(t *testing.T) {
	svc, db := setupNotificationService(t)

	user := testutil.TestMaster(t, db)
	other := testutil.TestMaster(t, db)
	require.NoError(t, svc.Notify(user.ID, "hello"))

	list, err := svc.List(user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	// Someone else cannot mark it.
	err = svc.MarkRead(other.ID, list[0].ID)
	assert.ErrorIs(t, err, ErrNotificationNotFound)

	require.NoError(t, svc.MarkRead(user.ID, list[0].ID))

	list, err = svc.List(user.ID)
	require.NoError(t, err)
	assert.True(t, list[0].IsRead)
}
