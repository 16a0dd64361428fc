package ipc

import (
	"github.com/aiseeq/s2l/protocol/api"
)

// Message types. The host sends hello once, then one game_state per step
// and expects a commands reply to each.
const (
	TypeHello     = "hello"
	TypeAck       = "ack"
	TypeGameState = "game_state"
	TypeCommands  = "commands"
	TypeError     = "error"
)

// HelloMessage identifies the bot. GameData, when present, overrides the
// built-in unit and upgrade catalog for the session.
type HelloMessage struct {
	Player    string    `json:"player"`
	Race      string    `json:"race"`
	EnemyRace string    `json:"enemyRace,omitempty"`
	BuildKey  string    `json:"buildKey,omitempty"`
	GameData  *GameData `json:"gameData,omitempty"`
}

type GameData struct {
	Units    []*api.UnitTypeData `json:"units,omitempty"`
	Upgrades []*api.UpgradeData  `json:"upgrades,omitempty"`
}

type AckMessage struct {
	Status  string `json:"status"`
	Session string `json:"session,omitempty"`
	Plan    string `json:"plan,omitempty"`
}

// ErrorMessage answers a request the sidecar could not handle.
type ErrorMessage struct {
	Request string `json:"request"`
	Error   string `json:"error"`
}
