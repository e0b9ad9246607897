// Package catalog holds the fixed seed data: the interest topics a child can pick
// and the reward catalog that points can unlock.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"ceritaku/internal/model"
)

//go:embed catalog.yaml
var catalogRawYAML []byte

type Catalog struct {
	Interests []string       `yaml:"interests"`
	Rewards   []model.Reward `yaml:"rewards"`
}

var base = mustParse(catalogRawYAML)

func mustParse(raw []byte) Catalog {
	c, err := Parse(raw)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded catalog.yaml: %v", err))
	}
	return c
}

// Parse decodes a catalog document and checks that reward ids are unique and costs positive.
func Parse(raw []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Catalog{}, err
	}
	seen := make(map[string]struct{}, len(c.Rewards))
	for i, r := range c.Rewards {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			return Catalog{}, fmt.Errorf("reward %d has no id", i)
		}
		if _, dup := seen[id]; dup {
			return Catalog{}, fmt.Errorf("duplicate reward id %q", id)
		}
		if r.Cost <= 0 {
			return Catalog{}, fmt.Errorf("reward %q has non-positive cost %d", id, r.Cost)
		}
		seen[id] = struct{}{}
		c.Rewards[i].ID = id
		c.Rewards[i].Unlocked = false
	}
	return c, nil
}

// Interests returns the selectable interest topics in display order.
func Interests() []string {
	return append([]string{}, base.Interests...)
}

func IsInterest(name string) bool {
	for _, interest := range base.Interests {
		if interest == name {
			return true
		}
	}
	return false
}

// InitialRewards returns a fresh, all-locked copy of the reward catalog.
func InitialRewards() []model.Reward {
	return append([]model.Reward{}, base.Rewards...)
}
