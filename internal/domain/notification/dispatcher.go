package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"tattoostudio/internal/domain/booking"
	"tattoostudio/internal/domain/inbox"
)

// Dispatcher turns booking and inbox side effects into published events.
// It satisfies booking.Notifier and inbox.ChannelSender.
type Dispatcher struct {
	pub  Publisher
	repo Repository
	log  *zap.Logger
	now  func() time.Time
}

var (
	_ booking.Notifier    = (*Dispatcher)(nil)
	_ inbox.ChannelSender = (*Dispatcher)(nil)
)

// NewDispatcher builds a dispatcher. repo may be nil, in which case no
// dispatch log is kept.
func NewDispatcher(pub Publisher, repo Repository, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		pub:  pub,
		repo: repo,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (d *Dispatcher) DepositRequested(ctx context.Context, n booking.DepositRequestNotice) error {
	return d.dispatch(ctx, n.StudioID, TypeDepositRequested, bookingKey(n.BookingID), n)
}

func (d *Dispatcher) BookingConfirmed(ctx context.Context, n booking.ConfirmationNotice) error {
	return d.dispatch(ctx, n.StudioID, TypeBookingConfirmed, bookingKey(n.BookingID), n)
}

func (d *Dispatcher) DepositExpired(ctx context.Context, n booking.DepositExpiredNotice) error {
	return d.dispatch(ctx, n.StudioID, TypeDepositExpired, bookingKey(n.BookingID), n)
}

func (d *Dispatcher) SendMessage(ctx context.Context, m inbox.OutboundMessage) error {
	return d.dispatch(ctx, m.StudioID, TypeOutboundMessage, "conversation:"+m.ConversationID, m)
}

func bookingKey(id int64) string {
	return "booking:" + strconv.FormatInt(id, 10)
}

func (d *Dispatcher) dispatch(ctx context.Context, studioID int64, typ Type, key string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", typ, err)
	}
	now := d.now()
	env := Envelope{
		ID:         uuid.NewString(),
		Type:       typ,
		StudioID:   studioID,
		OccurredAt: now,
		Data:       raw,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", typ, err)
	}

	var logged *Event
	if d.repo != nil {
		logged = &Event{
			EventID:   env.ID,
			StudioID:  studioID,
			Type:      typ,
			Key:       key,
			Payload:   datatypes.JSON(body),
			CreatedAt: now,
		}
		if err := d.repo.Create(ctx, logged); err != nil {
			d.log.Warn("notification event not logged", zap.String("type", string(typ)), zap.Error(err))
			logged = nil
		}
	}

	return d.publish(ctx, logged, typ, key, body)
}

func (d *Dispatcher) publish(ctx context.Context, logged *Event, typ Type, key string, body []byte) error {
	err := d.pub.Publish(ctx, typ, key, body)
	now := d.now()
	if err != nil {
		d.log.Warn("notification publish failed",
			zap.String("type", string(typ)),
			zap.String("key", key),
			zap.Error(err))
		if logged != nil {
			if merr := d.repo.MarkFailed(ctx, logged.ID, now, err.Error()); merr != nil {
				d.log.Warn("notification failure not recorded", zap.Int64("event_id", logged.ID), zap.Error(merr))
			}
		}
		return fmt.Errorf("publish %s: %w", typ, err)
	}
	if logged != nil {
		if merr := d.repo.MarkPublished(ctx, logged.ID, now); merr != nil {
			d.log.Warn("notification delivery not recorded", zap.Int64("event_id", logged.ID), zap.Error(merr))
		}
	}
	return nil
}

// Retry republishes a logged event that has not been delivered yet. The
// envelope is sent unchanged, so consumers can deduplicate on its id.
func (d *Dispatcher) Retry(ctx context.Context, studioID, id int64) (*Event, error) {
	if d.repo == nil {
		return nil, ErrEventNotFound
	}
	e, err := d.repo.Get(ctx, studioID, id)
	if err != nil {
		return nil, err
	}
	if e.Published() {
		return e, nil
	}
	if err := d.publish(ctx, e, e.Type, e.Key, []byte(e.Payload)); err != nil {
		return nil, err
	}
	return d.repo.Get(ctx, studioID, id)
}

func (d *Dispatcher) List(ctx context.Context, studioID int64, f ListFilter) ([]Event, error) {
	if d.repo == nil {
		return nil, nil
	}
	return d.repo.List(ctx, studioID, f)
}
