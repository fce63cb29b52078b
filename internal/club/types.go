// Package club defines the site dataset: the single aggregate value holding
// every editable piece of content, as stored in the archive repository's
// ledger document.
package club

import (
	"encoding/json"
	"fmt"
	"time"
)

// Project lifecycle status values.
const (
	ProjectConcept    = "Concept"
	ProjectInProgress = "In Progress"
	ProjectCompleted  = "Completed"
)

// Project operational status values. Independent axis from lifecycle status.
const (
	OpActive    = "Active"
	OpOnHold    = "On Hold"
	OpAbandoned = "Abandoned"
	OpCompleted = "Completed"
)

// Meeting status values.
const (
	MeetingActive    = "Active"
	MeetingCancelled = "Cancelled"
)

// Collection names addressable through the mutation layer.
const (
	ColProjects     = "projects"
	ColOfficers     = "officers"
	ColMeetings     = "meetings"
	ColPillars      = "pillars"
	ColMissionCards = "missionCards"
	ColTickerItems  = "tickerItems"
)

type Spec struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Project struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	Status            string `json:"status"`
	OperationalStatus string `json:"operationalStatus"`
	ImageURL          string `json:"imageUrl,omitempty"`
	Specs             []Spec `json:"specs"`
	LeadEngineer      string `json:"leadEngineer,omitempty"`
	EstCompletion     string `json:"estCompletion,omitempty"`
}

type Officer struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	ImageURL string `json:"imageUrl,omitempty"`
}

type Meeting struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Status      string `json:"status"`
	// CancellationReason is only meaningful when Status is Cancelled.
	CancellationReason string `json:"cancellationReason,omitempty"`
	ImageURL           string `json:"imageUrl,omitempty"`
}

type Pillar struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

type MissionCard struct {
	ID          string `json:"id"`
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

type TickerItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

// Dataset is the ledger: the entire site's editable content in one value.
// LastUpdated is stamped on every successful remote write; an absent or
// unparseable value is treated as timestamp zero.
type Dataset struct {
	Projects          []Project         `json:"projects"`
	Officers          []Officer         `json:"officers"`
	Meetings          []Meeting         `json:"meetings"`
	Pillars           []Pillar          `json:"pillars"`
	MissionCards      []MissionCard     `json:"missionCards"`
	TickerItems       []TickerItem      `json:"tickerItems"`
	SiteContent       map[string]string `json:"siteContent"`
	GoogleCalendarURL string            `json:"googleCalendarUrl"`
	DiscordURL        string            `json:"discordUrl"`
	LastUpdated       string            `json:"lastUpdated,omitempty"`
}

// UpdatedAt parses LastUpdated, returning the zero time when the field is
// absent or not a valid RFC 3339 timestamp.
func (d *Dataset) UpdatedAt() time.Time {
	if d == nil || d.LastUpdated == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, d.LastUpdated)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// Normalize defaults every collection to an empty slice, the site content
// map to an empty map, each project's specs to an empty slice, and each
// project's operational status to Active. It mutates the receiver and
// returns it for chaining.
func (d *Dataset) Normalize() *Dataset {
	if d.Projects == nil {
		d.Projects = []Project{}
	}
	if d.Officers == nil {
		d.Officers = []Officer{}
	}
	if d.Meetings == nil {
		d.Meetings = []Meeting{}
	}
	if d.Pillars == nil {
		d.Pillars = []Pillar{}
	}
	if d.MissionCards == nil {
		d.MissionCards = []MissionCard{}
	}
	if d.TickerItems == nil {
		d.TickerItems = []TickerItem{}
	}
	if d.SiteContent == nil {
		d.SiteContent = map[string]string{}
	}
	for i := range d.Projects {
		if d.Projects[i].Specs == nil {
			d.Projects[i].Specs = []Spec{}
		}
		if d.Projects[i].OperationalStatus == "" {
			d.Projects[i].OperationalStatus = OpActive
		}
	}
	return d
}

// Clone returns a deep copy. Published datasets are never mutated in place;
// every mutation works on a clone and replaces the published value wholesale.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := *d
	out.Projects = make([]Project, len(d.Projects))
	for i, p := range d.Projects {
		// A nil Specs stays nil: the clone must not erase the
		// omitted-versus-empty distinction the merge relies on.
		if p.Specs != nil {
			specs := make([]Spec, len(p.Specs))
			copy(specs, p.Specs)
			p.Specs = specs
		}
		out.Projects[i] = p
	}
	out.Officers = append([]Officer(nil), d.Officers...)
	out.Meetings = append([]Meeting(nil), d.Meetings...)
	out.Pillars = append([]Pillar(nil), d.Pillars...)
	out.MissionCards = append([]MissionCard(nil), d.MissionCards...)
	out.TickerItems = append([]TickerItem(nil), d.TickerItems...)
	out.SiteContent = make(map[string]string, len(d.SiteContent))
	for k, v := range d.SiteContent {
		out.SiteContent[k] = v
	}
	return &out
}

// Decode parses a ledger payload, rejecting structurally invalid documents
// instead of trusting their shape. Collections the payload omits stay nil so
// the reconciler can tell an omitted collection from a deliberately empty one;
// defaulting happens during the merge, not here.
func Decode(raw []byte) (*Dataset, error) {
	var d Dataset
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return &d, nil
}

// Encode serializes the dataset for the ledger document.
func Encode(d *Dataset) ([]byte, error) {
	payload, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode dataset: %w", err)
	}
	return append(payload, '\n'), nil
}
