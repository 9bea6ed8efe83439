package eventstream

import "errors"

// ErrNilEvent indicates a nil exchange event payload was provided to a publisher.
var ErrNilEvent = errors.New("nil exchange event")
