package model

import (
	"strconv"
	"time"
)

type ReadingLevel string

const (
	LevelBeginner     ReadingLevel = "Pemula"
	LevelIntermediate ReadingLevel = "Menengah"
	LevelAdvanced     ReadingLevel = "Mahir"
)

// ReadingLevels lists the levels from easiest to hardest.
var ReadingLevels = []ReadingLevel{LevelBeginner, LevelIntermediate, LevelAdvanced}

func (l ReadingLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	default:
		return false
	}
}

type RewardType string

const (
	RewardSticker RewardType = "sticker"
	RewardAvatar  RewardType = "avatar"
	RewardBadge   RewardType = "badge"
)

type Profile struct {
	Name       string       `json:"name"`
	Age        int          `json:"age" validate:"gte=6,lte=13"`
	ClassLevel int          `json:"classLevel" validate:"gte=1,lte=6"`
	Level      ReadingLevel `json:"level" validate:"readinglevel"`
	Interests  []string     `json:"interests" validate:"unique,dive,interest"`
}

// DefaultProfile is the profile used before the child has saved one.
func DefaultProfile() Profile {
	return Profile{
		Name:       "",
		Age:        7,
		ClassLevel: 1,
		Level:      LevelBeginner,
		Interests:  []string{},
	}
}

func (p Profile) Clone() Profile {
	out := p
	out.Interests = append([]string{}, p.Interests...)
	return out
}

type Story struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	ImageURL  string       `json:"imageUrl"`
	Level     ReadingLevel `json:"level"`
	Interest  string       `json:"interest"`
	IsRead    bool         `json:"isRead"`
	Timestamp int64        `json:"timestamp"`
}

type Reward struct {
	ID       string     `json:"id" yaml:"id"`
	Name     string     `json:"name" yaml:"name"`
	Type     RewardType `json:"type" yaml:"type"`
	Cost     int        `json:"cost" yaml:"cost"`
	Unlocked bool       `json:"unlocked" yaml:"unlocked"`
	Emoji    string     `json:"emoji" yaml:"emoji"`
}

type QAndA struct {
	ID        string `json:"id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	ImageURL  string `json:"imageUrl,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// State is every collection the progress store owns, as one value.
type State struct {
	Profile Profile  `json:"profile"`
	Stories []Story  `json:"stories"`
	Rewards []Reward `json:"rewards"`
	Points  int      `json:"points"`
	QAndAs  []QAndA  `json:"qAndAs"`
}

// Millis returns t as milliseconds since the Unix epoch.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// TimestampID formats a millisecond timestamp the way story and question ids are minted.
func TimestampID(ms int64) string {
	return strconv.FormatInt(ms, 10)
}
