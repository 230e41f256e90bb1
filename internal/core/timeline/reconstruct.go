package timeline

import (
	"cmp"
	"sort"
	"strconv"
	"time"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
)

// group accumulates the records of one unit while the input is scanned.
type group struct {
	key       string
	paired    bool
	timestamp time.Time
	slots     map[model.Role]model.LogRecord
	extras    []model.Member // info records and superseded slot holders, in input order
}

func (g *group) assign(rec model.LogRecord) {
	role := model.RoleFor(rec.Type())
	if role == model.RoleInfo {
		g.extras = append(g.extras, model.Member{Role: model.RoleInfo, Record: rec})
		return
	}
	if prev, ok := g.slots[role]; ok {
		g.extras = append(g.extras, model.Member{Role: role, Superseded: true, Record: prev})
	}
	g.slots[role] = rec
}

func (g *group) kind() model.Kind {
	if !g.paired {
		return model.KindStandalone
	}
	_, req := g.slots[model.RoleRequest]
	_, resp := g.slots[model.RoleResponse]
	_, errRec := g.slots[model.RoleError]

	switch {
	case req && resp:
		return model.KindRequestPlusResponse
	case req && errRec:
		return model.KindRequestPlusError
	case req:
		return model.KindRequestOnly
	case resp:
		return model.KindResponseOnly
	case errRec:
		return model.KindErrorOnly
	default:
		return model.KindInfoOnly
	}
}

func (g *group) unit() model.InteractionUnit {
	members := make([]model.Member, 0, len(g.slots)+len(g.extras))
	for _, role := range []model.Role{model.RoleRequest, model.RoleResponse, model.RoleError} {
		if rec, ok := g.slots[role]; ok {
			members = append(members, model.Member{Role: role, Record: rec})
		}
	}
	members = append(members, g.extras...)

	return model.InteractionUnit{
		GroupKey:  g.key,
		Paired:    g.paired,
		Timestamp: g.timestamp,
		Kind:      g.kind(),
		Members:   members,
	}
}

// Reconstruct turns a flat, unordered list of log records into interaction
// units, most recent first.
//
// Records without a pair id become standalone units keyed by their own id.
// Records sharing a pair id form one unit whose timestamp is the created_at of
// the first record seen for that pair id. When two records claim the same role
// the later one wins and the earlier stays in the unit marked superseded.
// Every input record lands in exactly one unit.
func Reconstruct(records []model.LogRecord) []model.InteractionUnit {
	if len(records) == 0 {
		return []model.InteractionUnit{}
	}

	groups := make([]*group, 0, len(records))
	byPair := make(map[string]*group)

	for _, rec := range records {
		if !rec.HasPair() {
			g := &group{
				key:       rec.ID.String(),
				timestamp: rec.CreatedAt,
				slots:     make(map[model.Role]model.LogRecord, 1),
			}
			// standalone records keep the role of their log type but are never merged
			role := model.RoleFor(rec.Type())
			if role == model.RoleInfo {
				g.extras = append(g.extras, model.Member{Role: role, Record: rec})
			} else {
				g.slots[role] = rec
			}
			groups = append(groups, g)
			continue
		}

		key := string(rec.PairID)
		g, ok := byPair[key]
		if !ok {
			g = &group{
				key:       key,
				paired:    true,
				timestamp: rec.CreatedAt,
				slots:     make(map[model.Role]model.LogRecord, 3),
			}
			byPair[key] = g
			groups = append(groups, g)
		}
		g.assign(rec)
	}

	units := make([]model.InteractionUnit, len(groups))
	for i, g := range groups {
		units[i] = g.unit()
	}

	sort.SliceStable(units, func(i, j int) bool {
		a, b := units[i], units[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return compareGroupKeys(a.GroupKey, b.GroupKey) > 0
	})

	return units
}

// compareGroupKeys orders integer keys numerically, other keys
// lexicographically, and every integer key below every other key.
func compareGroupKeys(a, b string) int {
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		return cmp.Compare(ai, bi)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}
