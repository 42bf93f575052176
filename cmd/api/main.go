package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/workforce-hub/attendance-backend-go/internal/config"
	"github.com/workforce-hub/attendance-backend-go/internal/domain/employee"
	appHTTP "github.com/workforce-hub/attendance-backend-go/internal/handler/http"
	"github.com/workforce-hub/attendance-backend-go/internal/pkg/cron"
	"github.com/workforce-hub/attendance-backend-go/internal/pkg/database"
	"github.com/workforce-hub/attendance-backend-go/internal/pkg/jwt"
	"github.com/workforce-hub/attendance-backend-go/internal/pkg/timeutil"
	"github.com/workforce-hub/attendance-backend-go/internal/repository/postgresql"
	attendanceService "github.com/workforce-hub/attendance-backend-go/internal/service/attendance"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	logger := appHTTP.NewLogger(os.Stdout, cfg.App.Name, cfg.App.Version, cfg.App.Env, cfg.App.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		slog.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	calendar, err := timeutil.LoadCalendar(timeutil.SystemClock{}, cfg.Attendance.Timezone)
	if err != nil {
		slog.Error("Invalid attendance timezone", "timezone", cfg.Attendance.Timezone, "error", err)
		os.Exit(1)
	}

	txManager := postgresql.NewTxManager(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	attendanceSvc := attendanceService.NewAttendanceService(
		txManager,
		attendanceRepo,
		employeeRepo,
		calendar,
		attendanceService.Options{
			Rules: attendanceService.Rules{
				StandardStartTime: cfg.Attendance.StandardStartTime,
				StandardWorkHours: cfg.Attendance.StandardWorkHours,
			},
			WageDefaults: employee.WageDefaults{
				Wage:         cfg.Attendance.DefaultWage,
				OvertimeRate: cfg.Attendance.DefaultOvertimeRate,
			},
			WorkingDaysPerMonth: cfg.Attendance.WorkingDaysPerMonth,
		},
	)

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)

	router := appHTTP.NewRouter(
		JWTService,
		attendanceHandler,
		appHTTP.RouterOptions{
			Logger:         logger,
			LogLevel:       appHTTP.ParseLogLevel(cfg.App.LogLevel),
			AllowedOrigins: cfg.CORS.AllowedOrigins,
		},
	)

	if cfg.Cron.Enabled {
		scheduler := cron.NewScheduler()
		cron.NewAttendanceJobs(attendanceRepo, employeeRepo, calendar, cfg.Cron.AbsentJobTick).RegisterJobs(scheduler)
		slog.Info("Starting cron scheduler", "jobs", scheduler.Jobs())
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "timezone", cfg.Attendance.Timezone)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}
