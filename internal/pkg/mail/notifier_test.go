package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ufsoft/screener/app/models"
)

func TestNotifier_SendChange(t *testing.T) {
	rec := &RecordingMailer{}
	n := NewNotifier(rec, "https://img.example.com/")

	user, err := models.CreateUser("alice", "alice@example.com", "password1")
	require.NoError(t, err)
	change, err := models.NewChange(user, models.ChangeConfirmed, "")
	require.NoError(t, err)
	require.NoError(t, n.SendChange(context.Background(), user, change))

	email, err := models.NewChange(user, models.ChangeEmail, "new@example.com")
	require.NoError(t, err)
	require.NoError(t, n.SendChange(context.Background(), user, email))

	msgs := rec.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "alice@example.com", msgs[0].To)
	assert.Contains(t, msgs[0].Body, "https://img.example.com/account/confirm/"+change.Hash)
	assert.Equal(t, "new@example.com", msgs[1].To)
	assert.Equal(t, "Confirm your email address", msgs[1].Subject)
}

func TestNotifier_SendAbuseConfirmation(t *testing.T) {
	rec := &RecordingMailer{}
	n := NewNotifier(rec, "http://localhost:4000")

	cat := models.NewCategory("pets", "", false, "")
	img := models.NewImage(cat, "photo.jpg", "image/jpeg")
	abuse := models.NewAbuse(img, "", "spam", "192.0.2.1", "reporter@example.com")
	require.NoError(t, n.SendAbuseConfirmation(context.Background(), abuse, img))

	msgs := rec.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "reporter@example.com", msgs[0].To)
	assert.Contains(t, msgs[0].Body, "pets/photo.jpg")
	assert.Contains(t, msgs[0].Body, "http://localhost:4000/abuse/confirm/"+abuse.Hash)
}
