package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"squad-management-api/internal/models"
)

func TestNotifications_ListAndMarkRead(t *testing.T) {
	env := setupServiceTestEnv(t)
	user := env.createUser(t, "user")
	other := env.createUser(t, "other")

	env.notifier.Notify(NotificationInput{
		UserID:  user.ID,
		Type:    models.NotificationInviteReceived,
		Title:   "Squad invite",
		Message: "first",
	})
	env.notifier.Notify(NotificationInput{
		UserID:  user.ID,
		Type:    models.NotificationApplicationApproved,
		Title:   "Application approved",
		Message: "second",
	})

	notifications, total, err := env.notifier.ListNotifications(user.ID, 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, notifications, 2)

	unread, err := env.notifier.CountUnread(user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, unread)

	// Another user cannot mark someone else's notification read.
	err = env.notifier.MarkRead(notifications[0].ID, other.ID)
	require.ErrorIs(t, err, ErrNotificationNotFound)

	require.NoError(t, env.notifier.MarkRead(notifications[0].ID, user.ID))

	unread, err = env.notifier.CountUnread(user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, unread)
}

func TestNotifications_Pagination(t *testing.T) {
	env := setupServiceTestEnv(t)
	user := env.createUser(t, "user")

	for i := 0; i < 5; i++ {
		env.notifier.Notify(NotificationInput{
			UserID: user.ID,
			Type:   models.NotificationInviteReceived,
			Title:  "Squad invite",
		})
	}

	page, total, err := env.notifier.ListNotifications(user.ID, 2, 2)
	require.NoError(t, err)
	require.EqualValues(t, 5, total)
	require.Len(t, page, 2)
}
