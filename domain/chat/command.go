package chat

import (
	"time"
)

// PostMessageCommand carries what a caller supplies to create a message.
// A zero Timestamp means "now".
type PostMessageCommand struct {
	Content   string `validate:"required"`
	Sender    string `validate:"required"`
	Receiver  string `validate:"required"`
	Timestamp time.Time
}

// ListMessagesCommand narrows ListAll. Every field is optional.
type ListMessagesCommand struct {
	Sender *string
	From   *time.Time
	To     *time.Time
}

func (l ListMessagesCommand) HasTimeRange() bool {
	return l.From != nil || l.To != nil
}

// Every backend keeps timestamps between these instants, inclusive.
var (
	MinTimestamp = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	MaxTimestamp = time.Date(9999, time.December, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC)
)

// TimeRange returns the inclusive bounds, open ends replaced by
// MinTimestamp and MaxTimestamp.
func (l ListMessagesCommand) TimeRange() (time.Time, time.Time) {
	from := MinTimestamp
	to := MaxTimestamp
	if l.From != nil {
		from = *l.From
	}
	if l.To != nil {
		to = *l.To
	}
	return from, to
}
