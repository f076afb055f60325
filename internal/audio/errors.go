package audio

import (
	"errors"
	"fmt"
)

var (
	ErrNoAudioToMerge    = errors.New("no completed chapter audio to merge")
	ErrMalformedCallback = errors.New("merge callback carries neither audioUrl nor error")
	ErrMergeFailed       = errors.New("merge failed")
	ErrJobFinalized      = errors.New("audio job was finalized while it was running")
)

// MergeError is a failed step of the local merge pipeline. It matches
// ErrMergeFailed with errors.Is.
type MergeError struct {
	Step string
	Err  error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge failed at %s: %v", e.Step, e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

func (e *MergeError) Is(target error) bool {
	return target == ErrMergeFailed
}
