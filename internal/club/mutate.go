package club

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrUnknownField      = errors.New("unknown field")
	ErrBadValue          = errors.New("bad value for field")
)

// The mutation operations below work in place on a single Dataset value.
// Callers that publish datasets (internal/state) always Clone first, so the
// previously published value stays untouched.

// SetSiteContent replaces one key of the site content map.
func (d *Dataset) SetSiteContent(key, value string) {
	if d.SiteContent == nil {
		d.SiteContent = map[string]string{}
	}
	d.SiteContent[key] = value
}

// UpdateField replaces one named field on the entity with the given id.
// A missing id is a no-op, not an error; the collection is otherwise
// unchanged. String fields require a string value; the project "specs"
// field requires []Spec.
func (d *Dataset) UpdateField(collection, id, field string, value any) error {
	switch collection {
	case ColProjects:
		for i := range d.Projects {
			if d.Projects[i].ID != id {
				continue
			}
			return updateProjectField(&d.Projects[i], field, value)
		}
		return nil
	case ColOfficers:
		for i := range d.Officers {
			if d.Officers[i].ID != id {
				continue
			}
			return updateOfficerField(&d.Officers[i], field, value)
		}
		return nil
	case ColMeetings:
		for i := range d.Meetings {
			if d.Meetings[i].ID != id {
				continue
			}
			return updateMeetingField(&d.Meetings[i], field, value)
		}
		return nil
	case ColPillars:
		for i := range d.Pillars {
			if d.Pillars[i].ID != id {
				continue
			}
			return updatePillarField(&d.Pillars[i], field, value)
		}
		return nil
	case ColMissionCards:
		for i := range d.MissionCards {
			if d.MissionCards[i].ID != id {
				continue
			}
			return updateMissionCardField(&d.MissionCards[i], field, value)
		}
		return nil
	case ColTickerItems:
		for i := range d.TickerItems {
			if d.TickerItems[i].ID != id {
				continue
			}
			return updateTickerField(&d.TickerItems[i], field, value)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
}

// Append adds a new entity to a collection. The raw payload supplies the
// caller's defaults; the id is always freshly generated, overriding any id
// in the payload. Returns the new id.
func (d *Dataset) Append(collection string, raw json.RawMessage) (string, error) {
	id := NewEntityID()
	switch collection {
	case ColProjects:
		p := Project{Status: ProjectInProgress, OperationalStatus: OpActive, Specs: []Spec{}}
		if err := decodeDefaults(raw, &p); err != nil {
			return "", err
		}
		p.ID = id
		if p.Specs == nil {
			p.Specs = []Spec{}
		}
		if p.OperationalStatus == "" {
			p.OperationalStatus = OpActive
		}
		d.Projects = append(d.Projects, p)
	case ColOfficers:
		o := Officer{}
		if err := decodeDefaults(raw, &o); err != nil {
			return "", err
		}
		o.ID = id
		d.Officers = append(d.Officers, o)
	case ColMeetings:
		m := Meeting{Status: MeetingActive}
		if err := decodeDefaults(raw, &m); err != nil {
			return "", err
		}
		m.ID = id
		if m.Status == "" {
			m.Status = MeetingActive
		}
		d.Meetings = append(d.Meetings, m)
	case ColPillars:
		p := Pillar{}
		if err := decodeDefaults(raw, &p); err != nil {
			return "", err
		}
		p.ID = id
		d.Pillars = append(d.Pillars, p)
	case ColMissionCards:
		c := MissionCard{}
		if err := decodeDefaults(raw, &c); err != nil {
			return "", err
		}
		c.ID = id
		d.MissionCards = append(d.MissionCards, c)
	case ColTickerItems:
		t := TickerItem{}
		if err := decodeDefaults(raw, &t); err != nil {
			return "", err
		}
		t.ID = id
		d.TickerItems = append(d.TickerItems, t)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	return id, nil
}

// Remove filters an entity out of a collection by id. A missing id leaves
// the collection unchanged.
func (d *Dataset) Remove(collection, id string) error {
	switch collection {
	case ColProjects:
		d.Projects = filterSlice(d.Projects, func(p Project) bool { return p.ID != id })
	case ColOfficers:
		d.Officers = filterSlice(d.Officers, func(o Officer) bool { return o.ID != id })
	case ColMeetings:
		d.Meetings = filterSlice(d.Meetings, func(m Meeting) bool { return m.ID != id })
	case ColPillars:
		d.Pillars = filterSlice(d.Pillars, func(p Pillar) bool { return p.ID != id })
	case ColMissionCards:
		d.MissionCards = filterSlice(d.MissionCards, func(c MissionCard) bool { return c.ID != id })
	case ColTickerItems:
		d.TickerItems = filterSlice(d.TickerItems, func(t TickerItem) bool { return t.ID != id })
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	return nil
}

// Swap exchanges an entity with its adjacent sibling. Delta is -1 to move
// toward the front and +1 toward the back; moving the first entity up or the
// last entity down is a no-op.
func (d *Dataset) Swap(collection, id string, delta int) error {
	if delta != -1 && delta != 1 {
		return fmt.Errorf("%w: swap delta must be -1 or 1", ErrBadValue)
	}
	switch collection {
	case ColProjects:
		swapAdjacent(d.Projects, func(p Project) string { return p.ID }, id, delta)
	case ColOfficers:
		swapAdjacent(d.Officers, func(o Officer) string { return o.ID }, id, delta)
	case ColMeetings:
		swapAdjacent(d.Meetings, func(m Meeting) string { return m.ID }, id, delta)
	case ColPillars:
		swapAdjacent(d.Pillars, func(p Pillar) string { return p.ID }, id, delta)
	case ColMissionCards:
		swapAdjacent(d.MissionCards, func(c MissionCard) string { return c.ID }, id, delta)
	case ColTickerItems:
		swapAdjacent(d.TickerItems, func(t TickerItem) string { return t.ID }, id, delta)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	return nil
}

func updateProjectField(p *Project, field string, value any) error {
	if field == "specs" {
		specs, ok := value.([]Spec)
		if !ok {
			return fmt.Errorf("%w: specs requires a spec list", ErrBadValue)
		}
		p.Specs = specs
		return nil
	}
	s, err := asString(field, value)
	if err != nil {
		return err
	}
	switch field {
	case "title":
		p.Title = s
	case "description":
		p.Description = s
	case "status":
		p.Status = s
	case "operationalStatus":
		p.OperationalStatus = s
	case "imageUrl":
		p.ImageURL = s
	case "leadEngineer":
		p.LeadEngineer = s
	case "estCompletion":
		p.EstCompletion = s
	default:
		return fmt.Errorf("%w: project.%s", ErrUnknownField, field)
	}
	return nil
}

func updateOfficerField(o *Officer, field string, value any) error {
	s, err := asString(field, value)
	if err != nil {
		return err
	}
	switch field {
	case "name":
		o.Name = s
	case "role":
		o.Role = s
	case "email":
		o.Email = s
	case "imageUrl":
		o.ImageURL = s
	default:
		return fmt.Errorf("%w: officer.%s", ErrUnknownField, field)
	}
	return nil
}

func updateMeetingField(m *Meeting, field string, value any) error {
	s, err := asString(field, value)
	if err != nil {
		return err
	}
	switch field {
	case "title":
		m.Title = s
	case "date":
		m.Date = s
	case "time":
		m.Time = s
	case "location":
		m.Location = s
	case "description":
		m.Description = s
	case "status":
		m.Status = s
	case "cancellationReason":
		m.CancellationReason = s
	case "imageUrl":
		m.ImageURL = s
	default:
		return fmt.Errorf("%w: meeting.%s", ErrUnknownField, field)
	}
	return nil
}

func updatePillarField(p *Pillar, field string, value any) error {
	s, err := asString(field, value)
	if err != nil {
		return err
	}
	switch field {
	case "title":
		p.Title = s
	case "description":
		p.Description = s
	case "imageUrl":
		p.ImageURL = s
	default:
		return fmt.Errorf("%w: pillar.%s", ErrUnknownField, field)
	}
	return nil
}

func updateMissionCardField(c *MissionCard, field string, value any) error {
	s, err := asString(field, value)
	if err != nil {
		return err
	}
	switch field {
	case "icon":
		c.Icon = s
	case "title":
		c.Title = s
	case "description":
		c.Description = s
	case "imageUrl":
		c.ImageURL = s
	default:
		return fmt.Errorf("%w: missionCard.%s", ErrUnknownField, field)
	}
	return nil
}

func updateTickerField(t *TickerItem, field string, value any) error {
	s, err := asString(field, value)
	if err != nil {
		return err
	}
	switch field {
	case "label":
		t.Label = s
	case "value":
		t.Value = s
	case "type":
		t.Type = s
	default:
		return fmt.Errorf("%w: tickerItem.%s", ErrUnknownField, field)
	}
	return nil
}

func asString(field string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s requires a string", ErrBadValue, field)
	}
	return s, nil
}

func decodeDefaults(raw json.RawMessage, target any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: %v", ErrBadValue, err)
	}
	return nil
}

func filterSlice[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func swapAdjacent[T any](items []T, idOf func(T) string, id string, delta int) {
	for i := range items {
		if idOf(items[i]) != id {
			continue
		}
		j := i + delta
		if j < 0 || j >= len(items) {
			return
		}
		items[i], items[j] = items[j], items[i]
		return
	}
}
