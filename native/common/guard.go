package common

import fterrors "fiattoken/core/errors"

// PauseView reports whether token movement is currently halted.
type PauseView interface {
	Paused() (bool, error)
}

// Guard fails with ErrPaused while the view reports a pause. A nil view never
// blocks.
func Guard(p PauseView) error {
	if p == nil {
		return nil
	}
	paused, err := p.Paused()
	if err != nil {
		return err
	}
	if paused {
		return fterrors.ErrPaused
	}
	return nil
}
