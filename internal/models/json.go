package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringSlice is a custom type for storing string arrays in JSON
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	return scanJSON(value, s)
}

// Link is one outbound link extracted from a page
type Link struct {
	URL      string `json:"url"`
	Text     string `json:"text,omitempty"`
	External bool   `json:"external"`
}

// LinkList stores extracted links as a JSON column
type LinkList []Link

func (l LinkList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *LinkList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	return scanJSON(value, l)
}

// MediaRef is one video or audio reference extracted from a page.
// Platform is a known platform tag ("youtube", "spotify", ...) or "other";
// for "other" the Host preserves the literal hostname so nothing is dropped.
type MediaRef struct {
	URL      string `json:"url"`
	Platform string `json:"platform"`
	Host     string `json:"host,omitempty"`
	Title    string `json:"title,omitempty"`
}

// MediaRefList stores media references as a JSON column
type MediaRefList []MediaRef

func (m MediaRefList) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *MediaRefList) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	return scanJSON(value, m)
}

func scanJSON(value interface{}, dst interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported column type %T", value)
	}
}
