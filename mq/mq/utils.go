package mq

import (
	"context"

	"github.com/rs/zerolog/log"
)

// SubscribeProcessor subscribes to service and forwards every transformed
// message to outputStream until ctx is done or service closes the channel.
// outputStream is closed when the processor stops.
// S is the subscribable service, M its message type and O the output type.
func SubscribeProcessor[S Subscriber[M], M any, O any](
	ctx context.Context,
	service S,
	transformFunc func(msg M) (O, bool, error),
	outputStream chan<- O,
) error {
	uid, inputCh, err := service.Subscribe()
	if err != nil {
		close(outputStream)
		return err
	}

	go func() {
		defer func() {
			if err := service.DeSubscribe(uid); err != nil {
				log.Debug().Err(err).Str("subscriber", uid.String()).Msg("de-subscribe")
			}
			close(outputStream)
		}()

		for {
			select {
			case msg, ok := <-inputCh:
				if !ok {
					// parent close channel
					return
				}

				output, skip, err := transformFunc(msg)
				if err != nil {
					log.Warn().Err(err).Str("subscriber", uid.String()).Msg("skip message")
					continue
				}
				if skip {
					continue
				}

				select {
				case outputStream <- output:
				case <-ctx.Done():
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
