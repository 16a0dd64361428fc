package plan

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aiseeq/s2l/protocol/enums/terran"

	"github.com/LostLucidity/lucid-ai-sub002/gamedata"
)

var actionPattern = regexp.MustCompile(`^(.*?)(?:\sx(\d+))?(?:\s\(Chrono Boost\))?$`)

const chronoSuffix = "(Chrono Boost)"

// Interpret turns a step's action text into actions. "Assimilator, Probe x2
// (Chrono Boost)" gives two. A part whose name resolves to nothing falls back
// to a special action named in the comment, or stays undefined.
func Interpret(c *gamedata.Catalog, action, comment string) []Action {
	var out []Action
	for _, part := range strings.Split(action, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		a := Action{Count: 1, ChronoBoost: strings.Contains(part, chronoSuffix)}
		name := part
		if m := actionPattern.FindStringSubmatch(part); m != nil {
			name = strings.TrimSpace(m[1])
			if m[2] != "" {
				if n, err := strconv.Atoi(m[2]); err == nil && n > 0 {
					a.Count = n
				}
			}
		}
		resolve(c, &a, name, comment)
		out = append(out, a)
	}
	return out
}

func resolve(c *gamedata.Catalog, a *Action, name, comment string) {
	if id, ok := c.UpgradeAlias(name); ok {
		a.IsUpgrade, a.Upgrade = true, id
		return
	}
	if id, ok := c.LookupUnit(name); ok {
		a.UnitType = id
		return
	}
	if id, ok := c.LookupUpgrade(name); ok {
		a.IsUpgrade, a.Upgrade = true, id
		return
	}
	upper := strings.ToUpper(comment)
	switch {
	case strings.Contains(upper, "CALL DOWN MULES"):
		a.Special, a.UnitType = SpecialCallDownMULEs, terran.MULE
	case strings.Contains(upper, "SCOUT SCV"), strings.Contains(upper, "SCOUT CSV"):
		a.Special, a.UnitType = SpecialScoutSCV, terran.SCV
	}
}
