package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/solari/internal/config"
	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/service"
	"github.com/Veraticus/solari/internal/storage"
)

// initStorage opens the configured SQLite database and applies migrations.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func closeStorage(store service.Storage) {
	if err := store.Close(); err != nil {
		slog.Error("Failed to close storage", "error", err)
	}
}

// currentUser resolves the user every command acts for: the --user flag
// when given, otherwise user.id from the config.
func currentUser() string {
	return viper.GetString("user.id")
}

// parseMonthFlag interprets a --month value, defaulting to the current month.
func parseMonthFlag(value string) (time.Time, error) {
	if value == "" {
		return model.MonthStart(time.Now().UTC()), nil
	}
	return model.ParseMonth(value)
}

// resolveCategory accepts a category id or name and returns the category.
func resolveCategory(ctx context.Context, store service.Storage, userID, ref string) (*model.Category, error) {
	if id, convErr := strconv.ParseInt(ref, 10, 64); convErr == nil {
		return store.GetCategoryByID(ctx, userID, id)
	}
	return store.GetCategoryByName(ctx, userID, ref)
}
