package schema

import (
	"gorm.io/gorm"

	"tattoostudio/internal/domain/booking"
	"tattoostudio/internal/domain/commission"
	"tattoostudio/internal/domain/inbox"
	"tattoostudio/internal/domain/notification"
	"tattoostudio/internal/domain/payperiod"
)

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&commission.Rule{},
		&commission.Tier{},
		&commission.ArtistAssignment{},
		&payperiod.PayPeriod{},
		&commission.EarnedCommission{},
		&booking.BookingRequest{},
		&booking.ReferenceImage{},
		&inbox.Conversation{},
		&inbox.Message{},
		&notification.Event{},
	}
}

// Migrate creates or updates all tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
