package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tattoostudio/internal/domain/booking"
	"tattoostudio/internal/domain/commission"
	"tattoostudio/internal/domain/inbox"
	"tattoostudio/internal/domain/notification"
	"tattoostudio/internal/domain/payperiod"
	"tattoostudio/internal/middleware"
	"tattoostudio/internal/pkg/jwt"
)

// Deps are the infrastructure pieces the HTTP layer is built on.
type Deps struct {
	DB            *gorm.DB
	Log           *zap.Logger
	Tokens        *jwt.Service
	InternalToken string
	CORSOrigins   []string
	References    booking.ReferenceGenerator
	PaymentLinks  booking.PaymentLinkGenerator
	Publisher     notification.Publisher
	Deposits      booking.Options
}

// Server exposes the router plus the services behind it, so other entry
// points (the deposit sweep, tests) share the same wiring.
type Server struct {
	Engine      *gin.Engine
	Commissions *commission.Service
	PayPeriods  *payperiod.Service
	Bookings    *booking.Service
	Inbox       *inbox.Service
	Hub         *inbox.Hub
	Dispatcher  *notification.Dispatcher
}

func New(d Deps) *Server {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	if d.Publisher == nil {
		d.Publisher = notification.NewLogPublisher(log)
	}

	dispatcher := notification.NewDispatcher(d.Publisher, notification.NewRepository(d.DB), log)
	commissions := commission.NewService(commission.NewRepository(d.DB), log)
	payPeriods := payperiod.NewService(payperiod.NewRepository(d.DB), log)
	bookings := booking.NewService(
		booking.NewRepository(d.DB),
		d.References,
		d.PaymentLinks,
		dispatcher,
		commissions,
		d.Deposits,
		log,
	)
	hub := inbox.NewHub(log)
	inboxes := inbox.NewService(inbox.NewRepository(d.DB), dispatcher, hub, log)

	s := &Server{
		Commissions: commissions,
		PayPeriods:  payPeriods,
		Bookings:    bookings,
		Inbox:       inboxes,
		Hub:         hub,
		Dispatcher:  dispatcher,
	}
	s.Engine = s.routes(d, log)
	return s
}

func (s *Server) routes(d Deps, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.ErrorLogger(log))
	r.Use(middleware.CORS(d.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	bookingHandler := booking.NewHandler(s.Bookings)
	inboxHandler := inbox.NewHandler(s.Inbox, s.Hub, log)

	v1 := r.Group("/api/v1")

	public := v1.Group("/public")
	booking.RegisterPublicRoutes(public, bookingHandler)

	staff := v1.Group("")
	staff.Use(middleware.JWTAuth(d.Tokens), middleware.StaffAny())
	{
		booking.RegisterRoutes(staff, bookingHandler)
		inbox.RegisterRoutes(staff, inboxHandler)
	}

	owner := v1.Group("")
	owner.Use(middleware.JWTAuth(d.Tokens), middleware.OwnerOnly())
	{
		commissions := owner.Group("/commissions")
		commission.RegisterRoutes(commissions, commission.NewHandler(s.Commissions))
		payperiod.RegisterRoutes(commissions, payperiod.NewHandler(s.PayPeriods))
		notification.RegisterRoutes(owner, notification.NewHandler(s.Dispatcher))
	}

	internal := v1.Group("/internal")
	internal.Use(middleware.InternalTokenAuth(d.InternalToken, log))
	{
		booking.RegisterInternalRoutes(internal, bookingHandler)
		inbox.RegisterInternalRoutes(internal, inboxHandler)
	}

	return r
}
