package database

type ChatRepository interface {
	Ping() error
	UpsertUser(params UpsertUserParams) (User, error)
	GetUserByUserId(userId string) (User, error)
	ListUsers() ([]User, error)
	CreateMessage(params CreateMessageParams) (Message, error)
	GetMessageByExternalId(externalId string) (Message, error)
	MarkMessageSeen(externalId string) (Message, error)
	GetConversation(senderId, receiverId string) ([]Message, error)
}
