package routes

import (
	"net/http"
	"time"

	"medibook/handlers"
	"medibook/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// HandlerBundle carries the wired handlers into route registration.
type HandlerBundle struct {
	Booking     *handlers.BookingHandler
	Payment     *handlers.PaymentHandler
	Appointment *handlers.AppointmentHandler
	Provider    *handlers.ProviderHandler
}

// RegisterProviderRoutes sets up the provider read path and hours setup.
func RegisterProviderRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/providers")
	{
		api.GET("/:id", hb.Provider.GetProvider)

		protected := api.Group("")
		protected.Use(middleware.SessionIdentityMiddleware())
		protected.PUT("/:id/schedule", hb.Provider.SetupWeeklyHours)
	}
}

// RegisterAppointmentRoutes sets up the confirmed-booking read paths.
func RegisterAppointmentRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/appointments")
	{
		api.Use(middleware.SessionIdentityMiddleware())
		api.GET("", hb.Appointment.ListMyAppointments)
		api.GET("/:id", hb.Appointment.GetAppointment)
		api.PATCH("/:id/cancel", hb.Appointment.CancelAppointment)
	}
}

// RegisterPaymentRoutes sets up the gateway callback endpoints.
func RegisterPaymentRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/payments")
	{
		api.POST("/callback/success", hb.Payment.PaymentSucceeded)
		api.POST("/callback/failure", hb.Payment.PaymentFailed)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Medibook"})
	})
}

// RegisterBookingRoutes sets up the endpoints for the booking engine.
func RegisterBookingRoutes(r *gin.Engine, hb *HandlerBundle) {
	bookingGroup := r.Group("/api/booking")
	{
		bookingGroup.GET("/slots", hb.Booking.GetDaySlots)

		protected := bookingGroup.Group("")
		protected.Use(middleware.SessionIdentityMiddleware())
		protected.POST("", hb.Booking.StartBooking)
		protected.DELETE("/:attemptID", hb.Booking.CancelHold)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *HandlerBundle) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterProviderRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterAppointmentRoutes(r, hb)
}
