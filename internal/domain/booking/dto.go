package booking

import "time"

type imageRequest struct {
	URL     string `json:"url" validate:"required,url,max=1024"`
	Caption string `json:"caption" validate:"max=255"`
}

type publicCreateRequest struct {
	ClientName        string         `json:"client_name" validate:"required,max=255"`
	ClientEmail       string         `json:"client_email" validate:"required,email,max=255"`
	ClientPhone       string         `json:"client_phone" validate:"max=32"`
	DesignDescription string         `json:"design_description" validate:"required,max=5000"`
	Placement         string         `json:"placement" validate:"max=120"`
	Size              string         `json:"size" validate:"required,oneof=tiny small medium large extra_large full_sleeve back_piece"`
	ColorPreference   string         `json:"color_preference" validate:"max=64"`
	IsCoverUp         bool           `json:"is_cover_up"`
	IsFirstTattoo     bool           `json:"is_first_tattoo"`
	ReferenceImages   []imageRequest `json:"reference_images" validate:"max=10,dive"`
}

func (r publicCreateRequest) toInput() CreateInput {
	in := CreateInput{
		ClientName:        r.ClientName,
		ClientEmail:       r.ClientEmail,
		ClientPhone:       r.ClientPhone,
		DesignDescription: r.DesignDescription,
		Placement:         r.Placement,
		Size:              SizeClass(r.Size),
		ColorPreference:   r.ColorPreference,
		IsCoverUp:         r.IsCoverUp,
		IsFirstTattoo:     r.IsFirstTattoo,
	}
	for _, img := range r.ReferenceImages {
		in.ReferenceImages = append(in.ReferenceImages, ImageInput{URL: img.URL, Caption: img.Caption})
	}
	return in
}

type staffCreateRequest struct {
	publicCreateRequest
	ArtistID      *int64 `json:"artist_id" validate:"omitempty,gt=0"`
	InternalNotes string `json:"internal_notes" validate:"max=5000"`
}

type updateRequest struct {
	Status             *string  `json:"status"`
	QuotedPrice        *int64   `json:"quoted_price"`
	EstimatedHours     *float64 `json:"estimated_hours"`
	QuoteNotes         *string  `json:"quote_notes" validate:"omitempty,max=5000"`
	InternalNotes      *string  `json:"internal_notes" validate:"omitempty,max=5000"`
	ArtistID           *int64   `json:"artist_id" validate:"omitempty,gt=0"`
	ClearArtist        bool     `json:"clear_artist"`
	Placement          *string  `json:"placement" validate:"omitempty,max=120"`
	Size               *string  `json:"size"`
	ColorPreference    *string  `json:"color_preference" validate:"omitempty,max=64"`
	RejectionReason    *string  `json:"rejection_reason" validate:"omitempty,max=2000"`
	CancellationReason *string  `json:"cancellation_reason" validate:"omitempty,max=2000"`
}

func (r updateRequest) toPatch() Patch {
	p := Patch{
		QuotedPrice:        r.QuotedPrice,
		EstimatedHours:     r.EstimatedHours,
		QuoteNotes:         r.QuoteNotes,
		InternalNotes:      r.InternalNotes,
		ArtistID:           r.ArtistID,
		ClearArtist:        r.ClearArtist,
		Placement:          r.Placement,
		ColorPreference:    r.ColorPreference,
		RejectionReason:    r.RejectionReason,
		CancellationReason: r.CancellationReason,
	}
	if r.Status != nil {
		st := Status(*r.Status)
		p.Status = &st
	}
	if r.Size != nil {
		sz := SizeClass(*r.Size)
		p.Size = &sz
	}
	return p
}

type depositRequest struct {
	Amount        int64  `json:"amount"`
	ExpiresInDays *int   `json:"expires_in_days"`
	Message       string `json:"message" validate:"max=2000"`
}

type confirmRequest struct {
	ScheduledDate time.Time `json:"scheduled_date"`
	DurationHours float64   `json:"duration_hours"`
	SendEmail     bool      `json:"send_email"`
}

type completeRequest struct {
	ServiceTotal *int64 `json:"service_total"`
}

type depositPaymentRequest struct {
	PaymentReference string     `json:"payment_reference" validate:"required,max=255"`
	Amount           int64      `json:"amount" validate:"gte=0"`
	PaidAt           *time.Time `json:"paid_at"`
}

// bookingView adds the actions staff may take next.
type bookingView struct {
	*BookingRequest
	AllowedActions []Action `json:"allowed_actions"`
}

func view(b *BookingRequest) bookingView {
	return bookingView{BookingRequest: b, AllowedActions: AllowedActions(b.Status)}
}
