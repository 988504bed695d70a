package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/bharatkse/image-storage-service/internal/storage"
)

const sweepBatchSize = 100

// Sweeper periodically drains the orphan stream and retries the blob deletes
// that failed during upload rollbacks. Entries are removed from the stream
// only after a successful delete, so a failed retry is attempted again on the
// next run.
type Sweeper struct {
	cron     *cron.Cron
	queue    *redis.Client
	stream   string
	schedule string
	store    storage.ObjectStore
	log      zerolog.Logger
}

func NewSweeper(queue *redis.Client, stream, schedule string, store storage.ObjectStore, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		cron:     cron.New(cron.WithSeconds()),
		queue:    queue,
		stream:   stream,
		schedule: schedule,
		store:    store,
		log:      log,
	}
}

func (s *Sweeper) Start() error {
	if s.queue == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits briefly for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(5 * time.Second):
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	messages, err := s.queue.XRangeN(ctx, s.stream, "-", "+", sweepBatchSize).Result()
	if err != nil {
		s.log.Error().Err(err).Msg("orphan stream read failed")
		return
	}
	if len(messages) == 0 {
		return
	}

	swept := 0
	for _, msg := range messages {
		blobKey, ok := msg.Values["blob_key"].(string)
		if !ok || blobKey == "" {
			// malformed entry, drop it
			_ = s.queue.XDel(ctx, s.stream, msg.ID).Err()
			continue
		}

		if err := s.store.Delete(ctx, blobKey); err != nil {
			s.log.Warn().Err(err).Str("blob_key", blobKey).Msg("orphan delete retry failed")
			continue
		}

		if err := s.queue.XDel(ctx, s.stream, msg.ID).Err(); err != nil {
			s.log.Error().Err(err).Str("message_id", msg.ID).Msg("orphan entry removal failed")
			continue
		}
		swept++
	}

	s.log.Info().Int("swept", swept).Int("seen", len(messages)).Msg("orphan sweep finished")
}
