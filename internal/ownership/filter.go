package ownership

import "github.com/stoiyeet/TravelShare/internal/domain"

// DefaultMemberColor is used for a visitor without a colour in the group.
const DefaultMemberColor = "#000"

// EffectiveMembers returns the group's members with the creator present
// first, whether or not the stored list contains it.
func EffectiveMembers(g *domain.Group) []domain.GroupMember {
	for _, m := range g.Members {
		if m.UserID == g.CreatedBy {
			return g.Members
		}
	}
	creator := domain.GroupMember{UserID: g.CreatedBy, Username: g.CreatorUsername}
	return append([]domain.GroupMember{creator}, g.Members...)
}

// FilterByGroup keeps the cities visited by at least one member of group
// and recolours every owner with the colour that member holds in the
// group. A nil group returns cities unchanged. The input is not modified.
func FilterByGroup(cities []domain.AggregatedCity, group *domain.Group) []domain.AggregatedCity {
	if group == nil {
		return cities
	}

	colors := make(map[string]string)
	for _, m := range EffectiveMembers(group) {
		if m.Username == "" {
			continue
		}
		colors[m.Username] = m.Color
	}

	out := make([]domain.AggregatedCity, 0, len(cities))
	for _, c := range cities {
		visited := false
		for _, o := range c.Owners {
			if _, ok := colors[o.Username]; ok {
				visited = true
				break
			}
		}
		if !visited {
			continue
		}

		owners := make([]domain.Owner, len(c.Owners))
		for i, o := range c.Owners {
			color := colors[o.Username]
			if color == "" {
				color = DefaultMemberColor
			}
			owners[i] = domain.Owner{Username: o.Username, Color: color}
		}
		out = append(out, domain.AggregatedCity{City: c.City, Owners: owners})
	}
	return out
}
