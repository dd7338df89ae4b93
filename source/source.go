package source

import (
	"context"
	"errors"

	"github.com/marcus-crane/lure/playback"
)

// Source is a listening service that can be asked what is playing right now.
// A nil track with a nil error means nothing is playing.
type Source interface {
	Name() string
	CurrentTrack(ctx context.Context) (*playback.Track, error)
}

// FatalError marks a poll failure that will not fix itself by polling again,
// such as a rejected API key or an unknown user.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal wraps err so that IsFatal reports true for it
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
