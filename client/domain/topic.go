package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	topicRoomPrefix = "/topic/room/"
	appPrefix       = "/app/chat."
)

// Topic kinds, as the suffix after the room id.
const (
	TopicMessages = ""
	TopicTyping   = "typing"
	TopicUsers    = "users"
	TopicSystem   = "system"
	TopicDeleted  = "deleted"
)

// RoomTopics lists every topic a joined session subscribes to.
func RoomTopics(roomID int64) []string {
	kinds := []string{TopicMessages, TopicTyping, TopicUsers, TopicSystem, TopicDeleted}
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = RoomTopic(roomID, k)
	}
	return out
}

func RoomTopic(roomID int64, kind string) string {
	if kind == TopicMessages {
		return fmt.Sprintf("%s%d", topicRoomPrefix, roomID)
	}
	return fmt.Sprintf("%s%d/%s", topicRoomPrefix, roomID, kind)
}

// ParseRoomTopic splits "/topic/room/42/typing" into (42, "typing").
func ParseRoomTopic(topic string) (int64, string, error) {
	rest, ok := strings.CutPrefix(topic, topicRoomPrefix)
	if !ok {
		return 0, "", fmt.Errorf("not a room topic: %q", topic)
	}
	idPart, kind, _ := strings.Cut(rest, "/")
	roomID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || roomID <= 0 {
		return 0, "", fmt.Errorf("invalid room id in topic %q", topic)
	}
	switch kind {
	case TopicMessages, TopicTyping, TopicUsers, TopicSystem, TopicDeleted:
		return roomID, kind, nil
	default:
		return 0, "", fmt.Errorf("unknown topic kind %q", kind)
	}
}

func JoinDestination(roomID int64) string {
	return fmt.Sprintf("%sjoinRoom/%d", appPrefix, roomID)
}

func LeaveDestination(roomID int64) string {
	return fmt.Sprintf("%sleaveRoom/%d", appPrefix, roomID)
}

func SendMessageDestination(roomID int64) string {
	return fmt.Sprintf("%ssendMessage/%d", appPrefix, roomID)
}

func TypingDestination(roomID int64) string {
	return fmt.Sprintf("%styping/%d", appPrefix, roomID)
}
