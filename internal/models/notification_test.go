package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotificationDataValidate(t *testing.T) {
	tests := []struct {
		name    string
		typ     NotificationType
		data    NotificationData
		wantErr bool
	}{
		{name: "empty payload", typ: NotificationMessage},
		{name: "message", typ: NotificationMessage, data: NotificationData{Message: &MessagePayload{}}},
		{name: "favorite", typ: NotificationFavorite, data: NotificationData{Favorite: &FavoritePayload{}}},
		{name: "sold", typ: NotificationProductSold, data: NotificationData{Product: &ProductPayload{}}},
		{name: "updated", typ: NotificationProductUpdated, data: NotificationData{Product: &ProductPayload{}}},
		{name: "system", typ: NotificationSystem, data: NotificationData{System: &SystemPayload{}}},
		{name: "view", typ: NotificationView, data: NotificationData{System: &SystemPayload{}}},
		{name: "unknown type", typ: "poke", wantErr: true},
		{name: "mismatch", typ: NotificationFavorite, data: NotificationData{Message: &MessagePayload{}}, wantErr: true},
		{
			name:    "two variants",
			typ:     NotificationMessage,
			data:    NotificationData{Message: &MessagePayload{}, System: &SystemPayload{}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate(tt.typ)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestConversationParticipants(t *testing.T) {
	req := require.New(t)
	c := &Conversation{Participants: []string{"a", "b"}}
	req.True(c.HasParticipant("a"))
	req.False(c.HasParticipant("z"))
	req.Equal("b", c.OtherParticipant("a"))
	req.Equal("a", c.OtherParticipant("b"))
	req.Equal("", c.OtherParticipant("z"))
}
