package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gift-exchange-backend/internal/config"
	"gift-exchange-backend/internal/database"
	apperrors "gift-exchange-backend/internal/errors"
	"gift-exchange-backend/internal/matching"
	"gift-exchange-backend/internal/repository"
	"gift-exchange-backend/internal/repository/memory"
	"gift-exchange-backend/internal/service"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm/logger"
)

// UserData identifies a participant as the identity provider would
type UserData struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// ExchangeData is one group with its captain and members
type ExchangeData struct {
	Name    string     `yaml:"name"`
	Secret  string     `yaml:"secret,omitempty"`
	Captain UserData   `yaml:"captain"`
	Members []UserData `yaml:"members"`
	Assign  bool       `yaml:"assign,omitempty"`
	Reveal  bool       `yaml:"reveal,omitempty"`
}

type exchangeFile struct {
	Exchanges []ExchangeData `yaml:"exchanges"`
}

type seedStats struct {
	created int
	skipped int
	joined  int
}

func main() {
	log.Println("Loading initial data from YAML files...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	exchanges, err := loadExchanges("scripts/data")
	if err != nil {
		log.Fatalf("Failed to read YAML files: %v", err)
	}

	generator, err := matching.NewSeededGenerator(cfg.MatchMaxAttempts)
	if err != nil {
		log.Fatalf("Failed to seed match generator: %v", err)
	}
	v := validator.New()
	groups := service.NewGroupService(store, generator, v, nil)
	memberships := service.NewMembershipService(store, v, nil, cfg.MaxGroupMembers)

	stats, err := seedExchanges(context.Background(), groups, memberships, exchanges)
	if err != nil {
		log.Fatalf("Failed to load initial data: %v", err)
	}

	log.Printf("Initial data loaded: %d groups created, %d skipped, %d members joined", stats.created, stats.skipped, stats.joined)
}

func openStore(cfg *config.Config) (repository.Store, error) {
	if cfg.UsesMemoryStore() {
		log.Println("DB_DRIVER=memory: data is validated but not persisted")
		return memory.NewStore(), nil
	}
	return connectWithRetry(cfg.DatabaseURL, 60, time.Second)
}

func connectWithRetry(dsn string, maxAttempts int, delay time.Duration) (repository.Store, error) {
	// Suppress all GORM logs including SQL queries and "record not found"
	opts := &database.Options{
		LogLevel: logger.Silent,
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		db, err := database.Initialize(dsn, opts)
		if err == nil {
			return repository.NewGormStore(db), nil
		}
		// Only log every 10 attempts to reduce noise
		if attempt%10 == 0 || attempt == maxAttempts {
			log.Printf("Database not ready (%d/%d): %v", attempt, maxAttempts, err)
		}
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("database not ready after %d attempts", maxAttempts)
}

// loadExchanges reads every *.yaml / *.yml file under dataDir
func loadExchanges(dataDir string) ([]ExchangeData, error) {
	var exchanges []ExchangeData

	err := filepath.WalkDir(dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		var file exchangeFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		exchanges = append(exchanges, file.Exchanges...)
		return nil
	})
	return exchanges, err
}

// seedExchanges replays the exchanges through the services. Groups that
// already exist are left untouched.
func seedExchanges(ctx context.Context, groups service.GroupServiceInterface, memberships service.MembershipServiceInterface, exchanges []ExchangeData) (seedStats, error) {
	var stats seedStats

	for _, exchange := range exchanges {
		captain := service.Identity{UserID: exchange.Captain.ID, Name: exchange.Captain.Name}
		group, err := groups.Create(ctx, captain, &service.CreateGroupRequest{
			Name:   exchange.Name,
			Secret: exchange.Secret,
		})
		if errors.Is(err, apperrors.ErrGroupExists) {
			log.Printf("Group %q already exists, skipping", exchange.Name)
			stats.skipped++
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("create group %q: %w", exchange.Name, err)
		}
		stats.created++

		for _, member := range exchange.Members {
			actor := service.Identity{UserID: member.ID, Name: member.Name}
			if _, err := memberships.Join(ctx, actor, group.ID, &service.JoinGroupRequest{Secret: exchange.Secret}); err != nil {
				return stats, fmt.Errorf("join %q to %q: %w", member.ID, exchange.Name, err)
			}
			stats.joined++
		}

		if exchange.Assign || exchange.Reveal {
			if _, err := groups.Assign(ctx, captain, group.ID); err != nil {
				return stats, fmt.Errorf("assign %q: %w", exchange.Name, err)
			}
		}
		if exchange.Reveal {
			if _, err := groups.Reveal(ctx, captain, group.ID); err != nil {
				return stats, fmt.Errorf("reveal %q: %w", exchange.Name, err)
			}
		}
	}

	return stats, nil
}
