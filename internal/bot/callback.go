package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CallbackKind tells what a button press asks for
type CallbackKind string

const (
	CallbackSong CallbackKind = "s"
	CallbackPage CallbackKind = "p"
	CallbackNoop CallbackKind = "noop"
)

// Callback payload layout
const (
	CallbackSeparator     = "|"
	CallbackParts         = 4
	MaxCallbackDataLength = 64
)

// ErrBadCallback is returned for payloads this bot did not produce
var ErrBadCallback = errors.New("malformed callback payload")

// Callback is a decoded button payload. Value is the result index for a
// song and the page number for a page.
type Callback struct {
	Kind  CallbackKind
	User  int64
	Value int
	Token string
}

// Encode renders the payload sent with a button
func (c Callback) Encode() string {
	if c.Kind == CallbackNoop {
		return string(CallbackNoop)
	}
	return strings.Join([]string{
		string(c.Kind),
		strconv.FormatInt(c.User, 10),
		strconv.Itoa(c.Value),
		c.Token,
	}, CallbackSeparator)
}

// ParseCallback decodes a button payload
func ParseCallback(data string) (Callback, error) {
	if data == string(CallbackNoop) {
		return Callback{Kind: CallbackNoop}, nil
	}
	if len(data) > MaxCallbackDataLength {
		return Callback{}, fmt.Errorf("%w: %d bytes", ErrBadCallback, len(data))
	}

	parts := strings.Split(data, CallbackSeparator)
	if len(parts) != CallbackParts {
		return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
	}

	kind := CallbackKind(parts[0])
	if kind != CallbackSong && kind != CallbackPage {
		return Callback{}, fmt.Errorf("%w: unknown kind %q", ErrBadCallback, parts[0])
	}
	user, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Callback{}, fmt.Errorf("%w: user: %v", ErrBadCallback, err)
	}
	value, err := strconv.Atoi(parts[2])
	if err != nil || value < 0 {
		return Callback{}, fmt.Errorf("%w: value %q", ErrBadCallback, parts[2])
	}
	if parts[3] == "" {
		return Callback{}, fmt.Errorf("%w: empty token", ErrBadCallback)
	}

	return Callback{Kind: kind, User: user, Value: value, Token: parts[3]}, nil
}
