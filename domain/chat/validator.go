package chat

import (
	"chat-store/errors"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New()

// Validate checks the fields a message cannot be stored without.
// Blank values count as missing.
func (p PostMessageCommand) Validate() error {
	trimmed := PostMessageCommand{
		Content:   strings.TrimSpace(p.Content),
		Sender:    strings.TrimSpace(p.Sender),
		Receiver:  strings.TrimSpace(p.Receiver),
		Timestamp: p.Timestamp,
	}
	err := validate.Struct(trimmed)
	if err == nil {
		return validateTimestamp(p.Timestamp)
	}
	var fieldErrors validator.ValidationErrors
	if !stderrors.As(err, &fieldErrors) {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	missing := lo.Map(fieldErrors, func(fe validator.FieldError, _ int) string {
		return strings.ToLower(fe.Field()) + " is required"
	})
	return fmt.Errorf("%w: %s", errors.ErrValidation, strings.Join(missing, ", "))
}

// A zero timestamp means "now" and is always accepted.
func validateTimestamp(at time.Time) error {
	if at.IsZero() {
		return nil
	}
	if at.Before(MinTimestamp) || at.After(MaxTimestamp) {
		return fmt.Errorf("%w: timestamp must be between %s and %s", errors.ErrValidation,
			MinTimestamp.Format(time.RFC3339), MaxTimestamp.Format(time.RFC3339))
	}
	return nil
}

// NewMessage builds the record a store persists for the command,
// assigning the given id and defaulting the timestamp to now.
func (p PostMessageCommand) NewMessage(id string, now time.Time) Message {
	at := p.Timestamp
	if at.IsZero() {
		at = now
	}
	return Message{
		ID:        id,
		Content:   p.Content,
		Sender:    p.Sender,
		Receiver:  p.Receiver,
		Timestamp: NormalizeTimestamp(at),
	}
}
