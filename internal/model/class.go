package model

import "time"

// ClassRecord is a character class cached from the upstream API.
// Index is the upstream natural key and never changes once stored.
type ClassRecord struct {
	ID        int64     `json:"id"`
	Index     string    `json:"index"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClassRecordFromMap decodes a raw upstream object. Missing or non-string
// index, name and url fields become empty strings; it never fails.
func ClassRecordFromMap(raw map[string]any) ClassRecord {
	return ClassRecord{
		Index: stringField(raw, "index"),
		Name:  stringField(raw, "name"),
		URL:   stringField(raw, "url"),
	}
}

// ToMap is the inverse of ClassRecordFromMap.
func (r ClassRecord) ToMap() map[string]any {
	return map[string]any{
		"index": r.Index,
		"name":  r.Name,
		"url":   r.URL,
	}
}

func stringField(raw map[string]any, key string) string {
	if s, ok := raw[key].(string); ok {
		return s
	}
	return ""
}
