package executor

import (
	"sync"

	"github.com/slackmgr/types"
)

// Callback is the completion handler attached to a single asynchronous write.
// It logs failures, notifies the optional hooks and always counts its latch
// down, exactly once.
type Callback struct {
	logger    types.Logger
	latch     *Latch
	message   string
	onSuccess func()
	onError   func(error)
	once      sync.Once
}

// NewCallback creates a callback that releases latch on completion. message
// prefixes the error log line written when the write fails. Either hook may
// be nil.
func NewCallback(logger types.Logger, latch *Latch, message string, onSuccess func(), onError func(error)) *Callback {
	return &Callback{
		logger:    logger,
		latch:     latch,
		message:   message,
		onSuccess: onSuccess,
		onError:   onError,
	}
}

// Complete records the outcome of the write. Only the first call has any
// effect.
func (c *Callback) Complete(err error) {
	c.once.Do(func() {
		defer c.latch.CountDown()

		if err != nil {
			c.logger.Errorf("%s: %v", c.message, err)

			if c.onError != nil {
				c.onError(err)
			}

			return
		}

		if c.onSuccess != nil {
			c.onSuccess()
		}
	})
}
