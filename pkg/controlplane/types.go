package controlplane

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ID identifies a link or profile. The control plane keys them by string
// but older builds emit bare numbers, so both decode.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number, got %s", strings.TrimSpace(string(data)))
	}
	*id = ID(n.String())
	return nil
}

type LinkStatus string

const (
	LinkActive   LinkStatus = "active"
	LinkError    LinkStatus = "error"
	LinkInactive LinkStatus = "inactive"
)

type Link struct {
	ID     ID         `json:"id"`
	Name   string     `json:"name"`
	URL    string     `json:"url"`
	Status LinkStatus `json:"status"`
}

type Profile struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// ActiveLink is a link running in one profile.
type ActiveLink struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	ProfileID   ID     `json:"profile_id"`
	ProfileName string `json:"profile_name"`
}

// Status is the control plane's scheduler snapshot.
type Status struct {
	ActiveCount   int          `json:"active_count"`
	TotalCount    int          `json:"total_count"`
	CheckInterval int          `json:"check_interval"` // minutes
	ActiveLinks   []ActiveLink `json:"active_links"`
	// LastStatusCheck is epoch seconds; 0 means no check has run yet.
	LastStatusCheck float64 `json:"last_status_check"`
}

// Ack is the payload of mutating operations: a human readable outcome.
type Ack struct {
	Message string `json:"message"`
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type linksPayload struct {
	Links []Link `json:"links"`
}

type profilesPayload struct {
	Profiles []Profile `json:"profiles"`
}

type logsPayload struct {
	Logs []string `json:"logs"`
}
