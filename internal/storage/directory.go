package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dogsport-ua/competition-engine/internal/models"
)

// Directory reads and writes the profile/dog records kept in the federation
// key-value store. Key layout: profile:<userId> and dogs:<userId>, JSON
// values, last write wins.
type Directory struct {
	client *redis.Client
}

// NewDirectory connects to the directory store
func NewDirectory(address, password string, db int) (*Directory, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Directory{client: client}, nil
}

func profileKey(userID string) string {
	return "profile:" + userID
}

func dogsKey(userID string) string {
	return "dogs:" + userID
}

// Profile returns the profile record for a user, or nil when absent.
// Legacy field names are folded into the canonical schema on read.
func (d *Directory) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	data, err := d.client.Get(ctx, profileKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile %s: %w", userID, err)
	}

	var p models.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile %s: %w", userID, err)
	}
	p.Normalize()

	return &p, nil
}

// PutProfile stores the profile record for a user
func (d *Directory) PutProfile(ctx context.Context, userID string, p *models.Profile) error {
	p.Normalize()

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := d.client.Set(ctx, profileKey(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set profile %s: %w", userID, err)
	}

	return nil
}

// Dogs returns the dog records of a user; an absent key is an empty list
func (d *Directory) Dogs(ctx context.Context, userID string) ([]models.Dog, error) {
	data, err := d.client.Get(ctx, dogsKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get dogs %s: %w", userID, err)
	}

	var dogs []models.Dog
	if err := json.Unmarshal(data, &dogs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dogs %s: %w", userID, err)
	}

	return dogs, nil
}

// Dog returns a single dog record of a user, or nil when absent
func (d *Directory) Dog(ctx context.Context, userID, dogID string) (*models.Dog, error) {
	dogs, err := d.Dogs(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range dogs {
		if dogs[i].ID == dogID {
			return &dogs[i], nil
		}
	}

	return nil, nil
}

// PutDogs stores the full dog list for a user
func (d *Directory) PutDogs(ctx context.Context, userID string, dogs []models.Dog) error {
	data, err := json.Marshal(dogs)
	if err != nil {
		return fmt.Errorf("failed to marshal dogs: %w", err)
	}

	if err := d.client.Set(ctx, dogsKey(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set dogs %s: %w", userID, err)
	}

	return nil
}

// Ping verifies store connectivity
func (d *Directory) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

// Close closes the connection
func (d *Directory) Close() error {
	return d.client.Close()
}
