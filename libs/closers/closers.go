package closers

import (
	"context"
	"io"

	"github.com/brave-intl/spectrocoin-callback/libs/logging"
)

// Log calls Close on the specified closer, logging on error
func Log(ctx context.Context, c io.Closer) {
	if c == nil {
		return
	}

	logger := logging.Logger(ctx, "closers.Log")
	if err := c.Close(); err != nil {
		logger.Error().Err(err).Msg("error attempting to close")
	}
}
