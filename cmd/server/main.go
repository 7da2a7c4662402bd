package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/cinetick/movie-booking/internal/config"
	"github.com/cinetick/movie-booking/internal/database"
	"github.com/cinetick/movie-booking/internal/handler"
	"github.com/cinetick/movie-booking/internal/middleware"
	"github.com/cinetick/movie-booking/internal/notify"
	"github.com/cinetick/movie-booking/internal/queue"
	"github.com/cinetick/movie-booking/internal/repository"
	"github.com/cinetick/movie-booking/internal/router"
	"github.com/cinetick/movie-booking/internal/service"
	"github.com/cinetick/movie-booking/internal/store"
	"github.com/cinetick/movie-booking/internal/sweeper"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	defer db.Close()

	// Redis backs rate limiting and the response cache. nil means Redis is
	// unreachable or disabled; both middlewares degrade to passthrough.
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	movies := repository.NewMovieRepo(db)
	theatres := repository.NewTheatreRepo(db)
	screens := repository.NewScreenRepo(db)
	showtimes := repository.NewShowtimeRepo(db)
	seats := repository.NewSeatRepo(db)
	bookings := repository.NewBookingRepo(db)

	// The memory backend only serves single-process development setups.
	// Seat maps are hydrated from the seats table at startup and kept
	// current by the admin showtime handlers; holds and seat state live
	// in the server's own heap and do not survive a restart.
	var seatStore store.SeatStore = store.NewMySQL(db)
	if cfg.SeatStore == "memory" {
		log.Printf("seat store: memory backend, holds will not survive a restart")
		hydrateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		all, err := seats.ListAll(hydrateCtx)
		cancel()
		if err != nil {
			log.Fatalf("seat store: hydrate from seats table: %v", err)
		}
		mem := store.NewMemory()
		mem.Load(all)
		seatStore = mem
	}

	var mailer *notify.Mailer
	if cfg.SMTPHost != "" {
		mailer = notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	}
	var codeMailer handler.CodeMailer
	if mailer != nil {
		codeMailer = mailer
	}

	// The broker is optional. Without it confirmations simply skip the
	// event and no consumer is started.
	var publish service.PublishFunc
	if cfg.AMQPURL != "" {
		pub := queue.NewPublisher(cfg.AMQPURL)
		publish = pub.PublishBookingConfirmed

		var tm queue.TicketMailer
		if mailer != nil {
			tm = mailer
		}
		go queue.NewConsumer(cfg.AMQPURL, tm).Run()
	}

	manager := service.NewReservationManager(seatStore, showtimes, cfg.ReservationTTL)
	workflow := service.NewBookingWorkflow(seatStore, showtimes, bookings, bookings, users, publish)

	sw := sweeper.New(seatStore, movies, showtimes, cfg.SweeperInterval)
	sw.Start()
	defer sw.Stop()

	authH := handler.NewAuthHandler(cfg, users, tokens, codeMailer)
	publicH := &handler.PublicHandler{
		Movies:    movies,
		Theatres:  theatres,
		Screens:   screens,
		Showtimes: showtimes,
		Seats:     seats,
	}
	reservationH := handler.NewReservationHandler(manager)
	bookingH := handler.NewBookingHandler(workflow, bookings)
	adminH := handler.NewAdminHandler(movies, theatres, screens, showtimes, seats, workflow, seatStore)

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	)
	router.RegisterBooking(e, reservationH, bookingH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	// Block until SIGINT/SIGTERM, then drain in-flight requests before the
	// deferred sweeper stop and database close run.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
