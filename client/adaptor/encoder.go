package adaptor

import (
	"encoding/json"
	"fmt"

	"github.com/ponyo877/vivachat/client/wire"
)

func EncodeSendMessage(roomID int64, content string) ([]byte, error) {
	return encode(wire.SendMessage{RoomID: roomID, Content: content})
}

func EncodeTyping(isTyping bool) ([]byte, error) {
	return encode(wire.TypingSignal{IsTyping: isTyping})
}

// EncodeAnnouncement is the body of join and leave announcements.
func EncodeAnnouncement() []byte {
	return []byte("{}")
}

func encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return b, nil
}
