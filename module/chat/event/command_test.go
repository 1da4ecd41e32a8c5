package event

import (
	"testing"

	chatmodel "PTalk/module/chat/model"
	"PTalk/tools/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallEventNames(t *testing.T) {
	assert.Equal(t, "audio_call_notification", CallNotification(chatmodel.CallAudio))
	assert.Equal(t, "video_call_missed", CallMissed(chatmodel.CallVideo))
	assert.Equal(t, "audio_call_accepted", CallAccepted(chatmodel.CallAudio))
	assert.Equal(t, "video_call_denied", CallDenied(chatmodel.CallVideo))
	assert.Equal(t, "on_another_audio_call", OnAnotherCall(chatmodel.CallAudio))
}

func TestValidateRejectsMissingIDs(t *testing.T) {
	cases := []Command{
		&FriendRequestCmd{From: "a"},
		&FriendRequestCmd{From: "a", To: "a"},
		&AcceptRequestCmd{},
		&ListConversationsCmd{UserID: " "},
		&StartConversationCmd{To: "b"},
		&StartGroupCmd{GroupName: "g"},
		&StartGroupCmd{GroupName: "g", Participants: []string{"a", ""}},
		&GetMessagesCmd{ConversationID: "c", ChatType: "channel"},
		&TextMessageCmd{ConversationID: "c", From: "a"},
		&GroupMessageCmd{From: "a"},
		&GroupMessageCmd{GroupID: "g", From: "a", Type: "sticker"},
		&StartCallCmd{From: "a"},
		&CallSignalCmd{To: "b"},
	}
	for _, c := range cases {
		err := c.Validate()
		assert.True(t, errs.Is(err, errs.ErrValidation), "%#v", c)
	}
}

func TestValidateResolvesKinds(t *testing.T) {
	gm := &GetMessagesCmd{ConversationID: "c", ChatType: "group"}
	require.NoError(t, gm.Validate())
	assert.Equal(t, chatmodel.ChatTypeGroup, gm.Kind)

	tm := &TextMessageCmd{ConversationID: "c", From: "a", To: "b", Message: "hi"}
	require.NoError(t, tm.Validate())
	assert.Equal(t, chatmodel.MessageText, tm.Kind)

	assert.NoError(t, (&EndCmd{}).Validate())
}
