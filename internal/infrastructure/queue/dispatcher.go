package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jurifinder/legal-vault/internal/api/metrics"
	"github.com/jurifinder/legal-vault/internal/core/domain"
	"github.com/jurifinder/legal-vault/internal/core/ports"
	"github.com/jurifinder/legal-vault/pkg/logger"
)

const (
	defaultWorkers = 2
	channelBuffer  = 256
)

// Dispatcher delivers transactional mail on a fixed set of workers. Mail is
// sharded by recipient so one address receives its messages in order.
type Dispatcher struct {
	workers []chan domain.OutboundMail
	mailer  ports.Mailer
	log     zerolog.Logger
	wg      sync.WaitGroup
}

var _ ports.MailQueue = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, mailer ports.Mailer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.OutboundMail, numWorkers),
		mailer:  mailer,
		log:     logger.Component(log, "mail_dispatcher"),
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.OutboundMail, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands mail to the worker responsible for its recipient. It never
// blocks: when that worker's buffer is full the mail is dropped and logged.
func (d *Dispatcher) Enqueue(mail domain.OutboundMail) {
	idx := d.shardIndex(mail.To)
	select {
	case d.workers[idx] <- mail:
		metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.MailDispatchedTotal.WithLabelValues(string(mail.Kind), "dropped").Inc()
		d.log.Error().Str("kind", string(mail.Kind)).Int("worker_id", idx).Msg("mail queue full, dropping")
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(to string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(to)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.OutboundMail) {
	defer d.wg.Done()
	depth := metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case mail, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			if err := d.mailer.Send(ctx, mail); err != nil {
				metrics.MailDispatchedTotal.WithLabelValues(string(mail.Kind), "failed").Inc()
				d.log.Error().Err(err).
					Str("kind", string(mail.Kind)).
					Int("worker_id", id).
					Msg("mail delivery failed")
				continue
			}
			metrics.MailDispatchedTotal.WithLabelValues(string(mail.Kind), "sent").Inc()
		}
	}
}
