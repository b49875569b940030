package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tattoostudio/internal/database"
	"tattoostudio/internal/domain/booking"
	"tattoostudio/internal/domain/commission"
	"tattoostudio/internal/domain/inbox"
	"tattoostudio/internal/domain/notification"
	"tattoostudio/internal/domain/payperiod"
	"tattoostudio/internal/logger"
	"tattoostudio/internal/pkg/jwt"
	"tattoostudio/internal/schema"
)

// Seeds one studio with a tiered default rule, an open pay period, a booking
// request waiting on its quote and an unread client conversation.
func main() {
	_ = godotenv.Load()

	dsn := flag.String("dsn", "studio.db", "database DSN")
	studioID := flag.Int64("studio", 1, "studio id")
	artistID := flag.Int64("artist", 2, "artist user id")
	secret := flag.String("jwt-secret", "change-me-jwt-secret", "secret used to print a dev owner token")
	flag.Parse()

	zl, err := logger.New("dev")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	db, err := database.Connect(*dsn, zl)
	if err != nil {
		zl.Fatal("db connection failed", zap.Error(err))
	}
	if err := schema.Migrate(db); err != nil {
		zl.Fatal("migrate failed", zap.Error(err))
	}

	ctx := context.Background()
	dispatcher := notification.NewDispatcher(notification.NewLogPublisher(zl), notification.NewRepository(db), zl)

	commissions := commission.NewService(commission.NewRepository(db), zl)
	upper := int64(100000)
	rule, err := commissions.CreateRule(ctx, *studioID, commission.RuleInput{
		Name:           "House split",
		Description:    "60% up to $1,000, 70% above",
		IsDefault:      true,
		CommissionType: commission.TypeTiered,
		Tiers: []commission.TierInput{
			{MinRevenue: 0, MaxRevenue: &upper, Percentage: decimal.NewFromInt(60)},
			{MinRevenue: upper, Percentage: decimal.NewFromInt(70)},
		},
	})
	if err != nil {
		zl.Fatal("create rule", zap.Error(err))
	}
	zl.Info("default rule created", zap.Int64("rule_id", rule.ID))

	today := time.Now().UTC().Truncate(24 * time.Hour)
	periods := payperiod.NewService(payperiod.NewRepository(db), zl)
	period, err := periods.Create(ctx, *studioID, payperiod.CreateInput{
		StartDate: today.AddDate(0, 0, -14),
		EndDate:   today.AddDate(0, 0, 14),
		Notes:     "seeded",
	})
	if err != nil {
		zl.Warn("pay period not created", zap.Error(err))
	} else {
		zl.Info("pay period created", zap.Int64("pay_period_id", period.ID))
	}

	refs, err := booking.NewSnowflakeReferenceGenerator(1)
	if err != nil {
		zl.Fatal("reference generator", zap.Error(err))
	}
	bookings := booking.NewService(booking.NewRepository(db), refs,
		booking.NewHostedPaymentLinks("https://pay.example.com"),
		dispatcher, commissions, booking.Options{}, zl)
	b, err := bookings.Create(ctx, *studioID, booking.CreateInput{
		ClientName:        "Jordan Lee",
		ClientEmail:       "jordan@example.com",
		DesignDescription: "Fine-line peony on the forearm",
		Placement:         "left forearm",
		Size:              booking.SizeMedium,
		ArtistID:          artistID,
		IsFirstTattoo:     true,
	})
	if err != nil {
		zl.Fatal("create booking request", zap.Error(err))
	}
	zl.Info("booking request created", zap.String("reference_code", b.ReferenceCode))

	inboxes := inbox.NewService(inbox.NewRepository(db), dispatcher, nil, zl)
	conv, err := inboxes.CreateConversation(ctx, *studioID, inbox.CreateConversationInput{
		ClientName:       b.ClientName,
		ClientEmail:      b.ClientEmail,
		Subject:          "Peony sizing",
		BookingRequestID: &b.ID,
	})
	if err != nil {
		zl.Fatal("create conversation", zap.Error(err))
	}
	if _, err := inboxes.ReceiveInbound(ctx, conv.ID, inbox.InboundInput{
		Channel: inbox.ChannelEmail,
		Body:    "Could it be a little smaller than the reference?",
	}); err != nil {
		zl.Fatal("seed inbound message", zap.Error(err))
	}

	token, err := jwt.New(*secret, 24*time.Hour).GenerateToken(1, *studioID, jwt.RoleOwner)
	if err != nil {
		zl.Fatal("owner token", zap.Error(err))
	}
	zl.Info("seed completed", zap.String("owner_token", token))
}
