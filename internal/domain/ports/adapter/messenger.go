package adapter

import "context"

// InlineButton is one button of an inline keyboard. Exactly one of Data or
// URL is set.
type InlineButton struct {
	Text string
	Data string
	URL  string
}

// Keyboard is a grid of inline buttons.
type Keyboard [][]InlineButton

// OutgoingMessage is a text message with an optional keyboard.
type OutgoingMessage struct {
	ChatID    int64
	Text      string
	ParseMode string
	Keyboard  Keyboard
	// ForceReply asks the client to open a reply box.
	ForceReply bool
}

// Messenger is the chat transport used by the admin flows.
type Messenger interface {
	Send(ctx context.Context, msg OutgoingMessage) (messageID int, err error)
	Edit(ctx context.Context, messageID int, msg OutgoingMessage) error
	Delete(ctx context.Context, chatID int64, messageID int) error
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
	SendPhoto(ctx context.Context, chatID int64, png []byte, caption string, kb Keyboard) (int, error)
	SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) (int, error)
}
