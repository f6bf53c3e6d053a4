package easing

import "errors"

var ErrUnknownEasing = errors.New("unknown easing")
