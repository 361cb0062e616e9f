package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants used by the client-server protocol.
const (
	// Client to server messages
	MessageTypeAuth          MessageType = "auth"
	MessageTypeCreateRoom    MessageType = "create_room"
	MessageTypeJoinRoom      MessageType = "join_room"
	MessageTypeLeaveRoom     MessageType = "leave_room"
	MessageTypeListRooms     MessageType = "list_rooms"
	MessageTypeStartSetup    MessageType = "start_setup"
	MessageTypePlayerReady   MessageType = "player_ready"
	MessageTypeRollDice      MessageType = "roll_dice"
	MessageTypeEndTurn       MessageType = "end_turn"
	MessageTypeTransferMoney MessageType = "transfer_money"
	MessageTypeBuyDeal       MessageType = "buy_deal"
	MessageTypeSkipDeal      MessageType = "skip_deal"
	MessageTypeBuyCharity    MessageType = "buy_charity"
	MessageTypePauseTimer    MessageType = "pause_timer"
	MessageTypeResumeTimer   MessageType = "resume_timer"

	// Server to client messages
	MessageTypeAuthResponse MessageType = "auth_response"
	MessageTypeError        MessageType = "error"
	MessageTypeRoomCreated  MessageType = "room_created"
	MessageTypeRoomJoined   MessageType = "room_joined"
	MessageTypeRoomLeft     MessageType = "room_left"
	MessageTypeRoomList     MessageType = "room_list"
	MessageTypeRoomState    MessageType = "room_state"
	MessageTypeTurnTimer    MessageType = "turn_timer"
	MessageTypeGameFinished MessageType = "game_finished"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
