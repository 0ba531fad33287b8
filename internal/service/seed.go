package service

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/raphaelgruber/knowbot/internal/models"
)

//go:embed seed.yaml
var defaultSeedYAML []byte

// Seed is the workspace content used when nothing was persisted.
type Seed struct {
	Conversations []models.Conversation
	Messages      map[string][]models.Message
	Projects      []models.Project
}

type seedFile struct {
	Conversations []struct {
		ID         string `yaml:"id"`
		Title      string `yaml:"title"`
		CreatedAgo string `yaml:"created_ago"`
		UpdatedAgo string `yaml:"updated_ago"`
		Archived   bool   `yaml:"archived"`
	} `yaml:"conversations"`
	Messages map[string][]struct {
		ID     string `yaml:"id"`
		Sender string `yaml:"sender"`
		Text   string `yaml:"text"`
	} `yaml:"messages"`
}

// DefaultSeed returns the built-in sample workspace anchored at now.
func DefaultSeed(now time.Time) Seed {
	seed, err := ParseSeed(defaultSeedYAML, now)
	if err != nil {
		panic(fmt.Sprintf("embedded seed: %v", err))
	}
	return seed
}

// ParseSeed decodes a YAML seed. Conversation ages are Go durations relative
// to now.
func ParseSeed(data []byte, now time.Time) (Seed, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Seed{}, fmt.Errorf("parse seed: %w", err)
	}

	seed := Seed{
		Conversations: make([]models.Conversation, 0, len(f.Conversations)),
		Messages:      make(map[string][]models.Message, len(f.Messages)),
		Projects:      []models.Project{},
	}

	for _, c := range f.Conversations {
		created, err := ago(now, c.CreatedAgo)
		if err != nil {
			return Seed{}, fmt.Errorf("conversation %s: created_ago: %w", c.ID, err)
		}
		updated, err := ago(now, c.UpdatedAgo)
		if err != nil {
			return Seed{}, fmt.Errorf("conversation %s: updated_ago: %w", c.ID, err)
		}
		seed.Conversations = append(seed.Conversations, models.Conversation{
			ID:          c.ID,
			Title:       c.Title,
			CreatedAt:   created,
			LastUpdated: bumped(created, updated),
			Archived:    c.Archived,
		})
	}

	for id, msgs := range f.Messages {
		for _, m := range msgs {
			sender := models.Sender(m.Sender)
			if !sender.Valid() {
				return Seed{}, fmt.Errorf("message %s: unknown sender %q", m.ID, m.Sender)
			}
			seed.Messages[id] = append(seed.Messages[id], models.Message{ID: m.ID, Sender: sender, Text: m.Text})
		}
	}

	return seed, nil
}

func ago(now time.Time, s string) (int64, error) {
	if s == "" {
		return models.Millis(now), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return models.Millis(now.Add(-d)), nil
}
