package contract

// Logical path schema of the feed:
//
//	room/{roomId}
//	room/{roomId}/participants/{identityId}
//	room/{roomId}/messages/{generatedId}

func RoomPath(roomID string) string {
	return "room/" + roomID
}

func ParticipantsPath(roomID string) string {
	return RoomPath(roomID) + "/participants"
}

func ParticipantPath(roomID, identityID string) string {
	return ParticipantsPath(roomID) + "/" + identityID
}

func MessagesPath(roomID string) string {
	return RoomPath(roomID) + "/messages"
}
