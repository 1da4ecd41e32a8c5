// Package event is the typed vocabulary of the realtime channel: event
// names, the command decoded from each inbound event and the payload of each
// outbound notification.
package event

import chatmodel "PTalk/module/chat/model"

// inbound
const (
	FriendRequest          = "friend_request"
	AcceptRequest          = "accept_request"
	GetDirectConversations = "get_direct_conversations"
	GetGroupConversations  = "get_group_conversations"
	StartConversation      = "start_conversation"
	StartGroup             = "start_group"
	GetMessages            = "get_messages"
	TextMessage            = "text_message"
	GroupMessage           = "group_message"
	StartAudioCall         = "start_audio_call"
	StartVideoCall         = "start_video_call"
	AudioCallNotPicked     = "audio_call_not_picked"
	VideoCallNotPicked     = "video_call_not_picked"
	AudioCallAccepted      = "audio_call_accepted"
	VideoCallAccepted      = "video_call_accepted"
	AudioCallDenied        = "audio_call_denied"
	VideoCallDenied        = "video_call_denied"
	UserBusyAudioCall      = "user_is_busy_audio_call"
	UserBusyVideoCall      = "user_is_busy_video_call"
	End                    = "end"
)

// outbound
const (
	NewFriendRequest = "new_friend_request"
	RequestSent      = "request_sent"
	RequestAccepted  = "request_accepted"
	StartChat        = "start_chat"
	StartGroupChat   = "start_group_chat"
	NewMessage       = "new_message"
	Ack              = "ack"
)

// CallNotification is "<kind>_call_notification".
func CallNotification(kind chatmodel.CallKind) string {
	return string(kind) + "_call_notification"
}

// CallMissed is "<kind>_call_missed".
func CallMissed(kind chatmodel.CallKind) string {
	return string(kind) + "_call_missed"
}

func CallAccepted(kind chatmodel.CallKind) string {
	return string(kind) + "_call_accepted"
}

func CallDenied(kind chatmodel.CallKind) string {
	return string(kind) + "_call_denied"
}

// OnAnotherCall is "on_another_<kind>_call", sent to a caller whose callee
// is busy.
func OnAnotherCall(kind chatmodel.CallKind) string {
	return "on_another_" + string(kind) + "_call"
}
