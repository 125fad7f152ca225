package cmd

import (
	"context"
	"testing"

	"github.com/spf13/cobra"

	"github.com/askmongo/askmongo/internal/config"
	"github.com/askmongo/askmongo/internal/errors"
)

func TestGetConfigFromContextMissing(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	_, err := GetConfigFromContext(cmd)
	if err == nil {
		t.Fatal("expected error when no configuration is attached")
	}

	if !errors.IsType(err, errors.ErrTypeConfig) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestGetConfigFromContextPresent(t *testing.T) {
	cfg := &config.Config{Mongo: config.MongoConfig{Database: "cinema_db"}}

	cmd := &cobra.Command{}
	cmd.SetContext(context.WithValue(context.Background(), configContextKey, cfg))

	got, err := GetConfigFromContext(cmd)
	if err != nil {
		t.Fatalf("GetConfigFromContext() error = %v", err)
	}

	if got.Mongo.Database != "cinema_db" {
		t.Errorf("expected the attached config, got %+v", got)
	}
}
