package journal

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aiseeq/s2l/protocol/api"
	"gorm.io/gorm"

	"github.com/LostLucidity/lucid-ai-sub002/ipc"
)

// Entry kinds.
const (
	KindCommand = "command"
	KindPlan    = "plan"
	KindEvent   = "event"
)

// Entry is one row of the decision_journal table.
type Entry struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	SessionID string    `gorm:"column:session_id;index;not null"`
	GameLoop  uint32    `gorm:"column:game_loop;not null"`
	Race      string    `gorm:"column:race"`
	Plan      string    `gorm:"column:plan"`
	Step      int       `gorm:"column:step"`
	Kind      string    `gorm:"column:kind;not null;default:'command'"`
	AbilityID uint32    `gorm:"column:ability_id"`
	UnitTags  string    `gorm:"column:unit_tags"`
	Detail    string    `gorm:"column:detail;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (Entry) TableName() string {
	return "decision_journal"
}

// Writer records decisions for one session.
type Writer interface {
	RecordCommands(ctx context.Context, loop uint32, race, plan string, cmds []ipc.UnitCommand) error
	RecordNote(ctx context.Context, loop uint32, kind, race, plan, detail string) error
}

// Discard is the Writer used when the journal is disabled.
type Discard struct{}

func (Discard) RecordCommands(context.Context, uint32, string, string, []ipc.UnitCommand) error {
	return nil
}

func (Discard) RecordNote(context.Context, uint32, string, string, string, string) error {
	return nil
}

// Journal is the gorm-backed Writer.
type Journal struct {
	db      *gorm.DB
	session string
	now     func() time.Time
}

func New(db *gorm.DB, session string) *Journal {
	return &Journal{db: db, session: session, now: time.Now}
}

func (j *Journal) RecordCommands(ctx context.Context, loop uint32, race, plan string, cmds []ipc.UnitCommand) error {
	if len(cmds) == 0 {
		return nil
	}
	now := j.now()
	rows := make([]Entry, len(cmds))
	for i, c := range cmds {
		rows[i] = Entry{
			SessionID: j.session,
			GameLoop:  loop,
			Race:      race,
			Plan:      plan,
			Step:      i,
			Kind:      KindCommand,
			AbilityID: uint32(c.AbilityID),
			UnitTags:  joinTags(c.UnitTags),
			Detail:    target(c),
			CreatedAt: now,
		}
	}
	if err := j.db.WithContext(ctx).CreateInBatches(rows, 100).Error; err != nil {
		return fmt.Errorf("record commands: %w", err)
	}
	return nil
}

func (j *Journal) RecordNote(ctx context.Context, loop uint32, kind, race, plan, detail string) error {
	e := Entry{
		SessionID: j.session,
		GameLoop:  loop,
		Race:      race,
		Plan:      plan,
		Kind:      kind,
		Detail:    detail,
		CreatedAt: j.now(),
	}
	if err := j.db.WithContext(ctx).Create(&e).Error; err != nil {
		return fmt.Errorf("record %s: %w", kind, err)
	}
	return nil
}

// Session returns every entry recorded for id in insertion order.
func Session(ctx context.Context, db *gorm.DB, id string) ([]Entry, error) {
	var out []Entry
	err := db.WithContext(ctx).
		Where("session_id = ?", id).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return out, nil
}

func joinTags(tags []api.UnitTag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = strconv.FormatUint(uint64(t), 10)
	}
	return strings.Join(parts, ",")
}

func target(c ipc.UnitCommand) string {
	switch {
	case c.TargetPos != nil:
		return fmt.Sprintf("pos=%.1f,%.1f", c.TargetPos.X, c.TargetPos.Y)
	case c.TargetTag != 0:
		return "tag=" + strconv.FormatUint(uint64(c.TargetTag), 10)
	}
	return ""
}
