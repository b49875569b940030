package booking

import (
	"sort"
	"time"

	"tattoostudio/internal/pkg/apperr"
)

// Action is a named request to move a booking request between statuses.
type Action string

const (
	ActionReview               Action = "review"
	ActionQuote                Action = "quote"
	ActionRequestDeposit       Action = "request_deposit"
	ActionRecordDepositPayment Action = "record_deposit_payment"
	ActionConfirm              Action = "confirm"
	ActionComplete             Action = "complete"
	ActionReject               Action = "reject"
	ActionCancel               Action = "cancel"
)

type transitionKey struct {
	from   Status
	action Action
}

// transitions is the complete graph. Pairs missing here are rejected.
var transitions = map[transitionKey]Status{
	{StatusPending, ActionReview}: StatusReviewing,

	{StatusPending, ActionQuote}:   StatusQuoted,
	{StatusReviewing, ActionQuote}: StatusQuoted,
	{StatusQuoted, ActionQuote}:    StatusQuoted,

	{StatusReviewing, ActionRequestDeposit}:        StatusDepositRequested,
	{StatusQuoted, ActionRequestDeposit}:           StatusDepositRequested,
	{StatusDepositRequested, ActionRequestDeposit}: StatusDepositRequested,

	{StatusDepositRequested, ActionRecordDepositPayment}: StatusDepositPaid,
	{StatusDepositPaid, ActionConfirm}:                   StatusConfirmed,
	{StatusConfirmed, ActionComplete}:                    StatusCompleted,

	{StatusPending, ActionReject}:   StatusRejected,
	{StatusReviewing, ActionReject}: StatusRejected,
	{StatusQuoted, ActionReject}:    StatusRejected,

	{StatusPending, ActionCancel}:          StatusCancelled,
	{StatusReviewing, ActionCancel}:        StatusCancelled,
	{StatusQuoted, ActionCancel}:           StatusCancelled,
	{StatusDepositRequested, ActionCancel}: StatusCancelled,
}

// Next returns the status reached by applying action in from.
func Next(from Status, action Action) (Status, error) {
	to, ok := transitions[transitionKey{from, action}]
	if !ok {
		if from.Terminal() {
			return "", apperr.Wrap(ErrInvalidTransition, apperr.KindInvalidTransition,
				"booking request is %s and can no longer change", from)
		}
		return "", apperr.Wrap(ErrInvalidTransition, apperr.KindInvalidTransition,
			"cannot %s a booking request that is %s", action, from)
	}
	return to, nil
}

// AllowedActions lists the actions valid from status, sorted by name.
func AllowedActions(from Status) []Action {
	var out []Action
	for k := range transitions {
		if k.from == from {
			out = append(out, k.action)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CheckPrerequisites verifies the fields b must carry to sit in status to.
// b is the request as it would look after the write.
func CheckPrerequisites(b *BookingRequest, to Status) error {
	switch to {
	case StatusQuoted, StatusDepositRequested, StatusDepositPaid, StatusConfirmed, StatusCompleted:
		if b.QuotedPrice == nil || *b.QuotedPrice <= 0 {
			return invalid("quoted_price must be set before the request can be %s", to)
		}
	}
	switch to {
	case StatusDepositRequested, StatusDepositPaid:
		if b.DepositAmount == nil || *b.DepositAmount <= 0 {
			return ErrDepositRequired
		}
	case StatusConfirmed:
		if b.ScheduledDate == nil || b.ScheduledDurationHours == nil || *b.ScheduledDurationHours <= 0 {
			return invalid("scheduled_date and scheduled_duration_hours are required to confirm")
		}
	}
	return nil
}

// Patch is a staff edit of a booking request. Nil fields are left alone.
type Patch struct {
	Status             *Status
	QuotedPrice        *int64
	EstimatedHours     *float64
	QuoteNotes         *string
	InternalNotes      *string
	ArtistID           *int64
	ClearArtist        bool
	Placement          *string
	Size               *SizeClass
	ColorPreference    *string
	RejectionReason    *string
	CancellationReason *string
}

// UpdatePlan is the outcome of PlanUpdate: the status change (if any), the
// actions that produced it and the columns to write.
type UpdatePlan struct {
	From    Status
	To      Status
	Actions []Action
	Changes map[string]any
}

func (p UpdatePlan) StatusChanged() bool { return p.From != p.To }

// statusActions maps a status a staff member may set directly to the action
// that reaches it. Other statuses have dedicated commands.
var statusActions = map[Status]Action{
	StatusReviewing: ActionReview,
	StatusQuoted:    ActionQuote,
	StatusRejected:  ActionReject,
	StatusCancelled: ActionCancel,
}

// PlanUpdate validates patch against current and returns what to persist.
// Writing quoted_price applies the quote transition in the same write, so a
// pending or reviewing request becomes quoted. An explicit status is then
// applied from the resulting status.
func PlanUpdate(current BookingRequest, patch Patch, now time.Time) (UpdatePlan, error) {
	plan := UpdatePlan{From: current.Status, To: current.Status, Changes: map[string]any{}}
	next := current

	if patch.QuotedPrice != nil {
		if *patch.QuotedPrice <= 0 {
			return UpdatePlan{}, invalid("quoted_price must be greater than 0")
		}
		to, err := Next(plan.To, ActionQuote)
		if err != nil {
			return UpdatePlan{}, err
		}
		plan.To = to
		plan.Actions = append(plan.Actions, ActionQuote)
		price := *patch.QuotedPrice
		next.QuotedPrice = &price
		plan.Changes["quoted_price"] = price
	}

	if patch.Status != nil && *patch.Status != plan.To {
		target := *patch.Status
		if !target.Valid() {
			return UpdatePlan{}, invalid("unknown status %q", target)
		}
		action, ok := statusActions[target]
		if !ok {
			return UpdatePlan{}, apperr.Wrap(ErrInvalidTransition, apperr.KindInvalidTransition,
				"status %s can only be reached through its dedicated action", target)
		}
		to, err := Next(plan.To, action)
		if err != nil {
			return UpdatePlan{}, err
		}
		plan.To = to
		plan.Actions = append(plan.Actions, action)
	}

	if plan.StatusChanged() {
		if err := CheckPrerequisites(&next, plan.To); err != nil {
			return UpdatePlan{}, err
		}
		plan.Changes["status"] = plan.To
	}

	if patch.EstimatedHours != nil {
		if *patch.EstimatedHours < 0 {
			return UpdatePlan{}, invalid("estimated_hours must not be negative")
		}
		plan.Changes["estimated_hours"] = *patch.EstimatedHours
	}
	if patch.QuoteNotes != nil {
		plan.Changes["quote_notes"] = *patch.QuoteNotes
	}
	if patch.InternalNotes != nil {
		plan.Changes["internal_notes"] = *patch.InternalNotes
	}
	if (patch.ClearArtist || patch.ArtistID != nil) && current.Status.Terminal() {
		return UpdatePlan{}, apperr.Wrap(ErrInvalidState, apperr.KindInvalidState,
			"artist cannot change on a %s booking request", current.Status)
	}
	if patch.ClearArtist {
		plan.Changes["artist_id"] = nil
	} else if patch.ArtistID != nil {
		plan.Changes["artist_id"] = *patch.ArtistID
	}
	if patch.Placement != nil {
		plan.Changes["placement"] = *patch.Placement
	}
	if patch.Size != nil {
		if !patch.Size.Valid() {
			return UpdatePlan{}, invalid("unknown size %q", *patch.Size)
		}
		plan.Changes["size"] = *patch.Size
	}
	if patch.ColorPreference != nil {
		plan.Changes["color_preference"] = *patch.ColorPreference
	}
	if patch.RejectionReason != nil {
		plan.Changes["rejection_reason"] = *patch.RejectionReason
	}
	if patch.CancellationReason != nil {
		plan.Changes["cancellation_reason"] = *patch.CancellationReason
	}

	if len(plan.Changes) > 0 {
		plan.Changes["updated_at"] = now
	}
	return plan, nil
}
