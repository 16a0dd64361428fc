package plan

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/aiseeq/s2l/protocol/api"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/LostLucidity/lucid-ai-sub002/gamedata"
	"github.com/LostLucidity/lucid-ai-sub002/rules"
)

//go:embed schema/build_order.schema.json
var schemaSource string

const schemaURL = "build_order.schema.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, strings.NewReader(schemaSource)); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
})

type orderFile struct {
	Title    string     `yaml:"title"`
	Race     string     `yaml:"race"`
	Key      string     `yaml:"key"`
	Selector string     `yaml:"selector"`
	Priority int        `yaml:"priority"`
	Steps    []stepFile `yaml:"steps"`
	Doctrine yaml.Node  `yaml:"doctrine"`
}

type stepFile struct {
	Supply      supplyValue `yaml:"supply"`
	Time        string      `yaml:"time"`
	Action      string      `yaml:"action"`
	Comment     *string     `yaml:"comment"`
	Interpreted *actionList `yaml:"interpretedAction"`
}

type actionFile struct {
	UnitType    *uint32 `yaml:"unitType"`
	UpgradeType *uint32 `yaml:"upgradeType"`
	Count       *int    `yaml:"count"`
	IsUpgrade   bool    `yaml:"isUpgrade"`
	Chrono      bool    `yaml:"isChronoBoosted"`
	Special     *string `yaml:"specialAction"`
}

// supplyValue accepts both "14" and 14.
type supplyValue string

func (s *supplyValue) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: supply must be a scalar", n.Line)
	}
	*s = supplyValue(n.Value)
	return nil
}

// actionList accepts a single interpreted action or a list of them.
type actionList []actionFile

func (l *actionList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.SequenceNode:
		var many []actionFile
		if err := n.Decode(&many); err != nil {
			return err
		}
		*l = many
	case yaml.MappingNode:
		var one actionFile
		if err := n.Decode(&one); err != nil {
			return err
		}
		*l = actionList{one}
	default:
		*l = nil
	}
	return nil
}

func (a actionFile) toAction() Action {
	out := Action{IsUpgrade: a.IsUpgrade, ChronoBoost: a.Chrono, Count: 1}
	if a.Count != nil {
		out.Count = *a.Count
	}
	if a.UnitType != nil {
		out.UnitType = api.UnitTypeID(*a.UnitType)
	}
	if a.UpgradeType != nil {
		out.Upgrade = api.UpgradeID(*a.UpgradeType)
	}
	if a.Special != nil {
		out.Special = *a.Special
	}
	return out
}

// Validate checks raw YAML or JSON against the build-order schema.
func Validate(raw []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	// Round-trip through JSON so the validator sees plain JSON types.
	js, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	var v any
	if err := json.Unmarshal(js, &v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return schema.Validate(v)
}

// Parse validates and decodes one build order. key is used when the file
// does not name one.
func Parse(c *gamedata.Catalog, raw []byte, key string) (*BuildOrder, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}
	var f orderFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	o := &BuildOrder{
		Key:      f.Key,
		Title:    f.Title,
		Selector: strings.TrimSpace(f.Selector),
		Priority: f.Priority,
		Steps:    make([]Step, 0, len(f.Steps)),
	}
	if o.Key == "" {
		o.Key = key
	}
	if o.Key == "" {
		o.Key = slug(f.Title)
	}
	if !f.Doctrine.IsZero() {
		o.doctrine = &f.Doctrine
		if _, _, err := o.Doctrine(rules.DefaultDoctrine()); err != nil {
			return nil, err
		}
	}

	for i, sf := range f.Steps {
		supply, err := strconv.Atoi(strings.TrimSpace(string(sf.Supply)))
		if err != nil {
			return nil, fmt.Errorf("step %d: supply %q: %w", i, sf.Supply, err)
		}
		s := Step{Supply: supply, Time: sf.Time, Action: sf.Action}
		if sf.Comment != nil {
			s.Comment = *sf.Comment
		}
		if _, err := s.Seconds(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		if sf.Interpreted != nil && len(*sf.Interpreted) > 0 {
			for _, a := range *sf.Interpreted {
				s.Actions = append(s.Actions, a.toAction())
			}
		} else {
			s.Actions = Interpret(c, s.Action, s.Comment)
		}
		o.Steps = append(o.Steps, s)
	}

	if f.Race != "" {
		r, ok := gamedata.ParseRace(f.Race)
		if !ok {
			return nil, fmt.Errorf("race %q: %w", f.Race, ErrUndefinedRace)
		}
		o.Race = r
	} else {
		o.Race = inferRace(c, o)
	}
	if !gamedata.KnownRace(o.Race) {
		return nil, fmt.Errorf("build order %q: %w", o.Key, ErrUndefinedRace)
	}
	return o, nil
}

// LoadFile reads a .yaml, .yml or .json build order; the file name is the
// default key.
func LoadFile(c *gamedata.Catalog, path string) (*BuildOrder, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	o, err := Parse(c, raw, key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return o, nil
}

// LoadDir loads every build order file in dir.
func LoadDir(c *gamedata.Catalog, dir string) ([]*BuildOrder, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []*BuildOrder
	for _, e := range entries {
		if e.IsDir() || !isOrderFile(e.Name()) {
			continue
		}
		o, err := LoadFile(c, filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func isOrderFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func inferRace(c *gamedata.Catalog, o *BuildOrder) api.Race {
	for _, s := range o.Steps {
		for _, a := range s.Actions {
			if a.IsUpgrade || a.UnitType == 0 {
				continue
			}
			if d, ok := c.Unit(a.UnitType); ok && gamedata.KnownRace(d.Race) {
				return d.Race
			}
		}
	}
	return api.Race_NoRace
}

func slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
