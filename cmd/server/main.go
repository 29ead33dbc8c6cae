// Package main is the entry point for the notewell API server.
//
// main's job is deliberately small:
//  1. Read configuration from the environment
//  2. Create the process-wide dependencies (logger, mailer, Google
//     provider)
//  3. Hand everything to internal/server and block
//
// All actual logic lives in the imported packages.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hwdlte/notewell/internal/auth"
	"github.com/hwdlte/notewell/internal/mail"
	"github.com/hwdlte/notewell/internal/server"
)

func main() {
	// === 1. LOGGING ===
	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		// Debug level also logs issued login codes — a deliberate
		// development aid, never for production.
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	// === 2. CONFIGURATION ===
	port := 4000
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/notewell.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// JWT_SECRET must be a long random string:
	//   JWT_SECRET=$(openssl rand -hex 32)
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	var corsOrigins []string
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			corsOrigins = append(corsOrigins, strings.TrimSpace(o))
		}
	} else {
		// Local SPA dev server.
		corsOrigins = []string{"http://localhost:5173"}
	}

	// === 3. MAIL DISPATCHER ===
	// Without SMTP settings the server still runs: login codes are
	// written to the log instead of delivered. Useful locally, useless
	// (and loud) in production.
	var mailer mail.Mailer
	smtpHost := os.Getenv("SMTP_HOST")
	if smtpHost != "" {
		smtpPort := 587
		if p := os.Getenv("SMTP_PORT"); p != "" {
			var err error
			smtpPort, err = strconv.Atoi(p)
			if err != nil {
				logger.Error("invalid SMTP_PORT value", slog.String("value", p))
				os.Exit(1)
			}
		}
		smtpMailer, err := mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     smtpHost,
			Port:     smtpPort,
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     os.Getenv("SMTP_FROM"),
		})
		if err != nil {
			logger.Error("invalid SMTP configuration", slog.String("error", err.Error()))
			os.Exit(1)
		}
		mailer = smtpMailer
	} else {
		logger.Warn("SMTP not configured — login codes will be logged, not emailed")
		mailer = mail.NewLogMailer(logger)
	}

	// === 4. GOOGLE SIGN-IN (optional) ===
	// Construction performs OIDC discovery, so it gets a timeout. If
	// the client ID is unset, Google routes are simply not registered.
	var google *auth.GoogleProvider
	if clientID := os.Getenv("GOOGLE_CLIENT_ID"); clientID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		provider, err := auth.NewGoogleProvider(ctx,
			clientID,
			os.Getenv("GOOGLE_CLIENT_SECRET"),
			os.Getenv("GOOGLE_CALLBACK_URL"),
		)
		cancel()
		if err != nil {
			logger.Error("failed to initialize Google sign-in", slog.String("error", err.Error()))
			os.Exit(1)
		}
		google = provider
	} else {
		logger.Warn("GOOGLE_CLIENT_ID not set — Google sign-in is disabled")
	}

	// === 5. CREATE AND START THE SERVER ===
	cfg := server.Config{
		Port:        port,
		DBPath:      dbPath,
		StaticDir:   os.Getenv("STATIC_DIR"),
		JWTSecret:   jwtSecret,
		CORSOrigins: corsOrigins,
	}

	srv, err := server.New(cfg, logger, mailer, google)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
