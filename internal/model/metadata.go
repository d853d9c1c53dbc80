package model

import (
	"maps"
	"time"
)

// Metadata describes one stored media object and, for originals, the
// derivatives computed from it.
type Metadata struct {
	Path             Path              `json:"path"`
	ContentType      string            `json:"content_type,omitempty"`
	ContentLength    int               `json:"content_length"`
	EmbeddedMetadata map[string]string `json:"embedded_metadata"`
	Transformation   string            `json:"transformation,omitempty"` // canonical chain string, derivatives only
	DerivedMedias    []Metadata        `json:"derived_medias"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        *time.Time        `json:"updated_at,omitempty"`
}

// NewMetadata returns an empty record for p created now.
func NewMetadata(p Path) Metadata {
	return Metadata{
		Path:             p,
		EmbeddedMetadata: map[string]string{},
		DerivedMedias:    []Metadata{},
		CreatedAt:        time.Now().UTC(),
	}
}

// AppendDerivedMedia adds d, replacing an existing entry with the same path so
// derived paths stay unique per parent.
func (m *Metadata) AppendDerivedMedia(d Metadata) {
	for i := range m.DerivedMedias {
		if m.DerivedMedias[i].Path == d.Path {
			m.DerivedMedias[i] = d
			return
		}
	}

	m.DerivedMedias = append(m.DerivedMedias, d)
}

// RemoveDerivedMedia drops the entry for p and reports whether one existed.
func (m *Metadata) RemoveDerivedMedia(p Path) bool {
	for i := range m.DerivedMedias {
		if m.DerivedMedias[i].Path == p {
			m.DerivedMedias = append(m.DerivedMedias[:i], m.DerivedMedias[i+1:]...)
			return true
		}
	}

	return false
}

// OldestDerivedAt returns the creation time of the oldest derivative.
func (m Metadata) OldestDerivedAt() (time.Time, bool) {
	var oldest time.Time
	for i, d := range m.DerivedMedias {
		if i == 0 || d.CreatedAt.Before(oldest) {
			oldest = d.CreatedAt
		}
	}

	return oldest, len(m.DerivedMedias) > 0
}

// Touch sets UpdatedAt to now.
func (m *Metadata) Touch() {
	now := time.Now().UTC()
	m.UpdatedAt = &now
}

// Clone returns a deep copy.
func (m Metadata) Clone() Metadata {
	out := m
	out.EmbeddedMetadata = maps.Clone(m.EmbeddedMetadata)
	if out.EmbeddedMetadata == nil {
		out.EmbeddedMetadata = map[string]string{}
	}

	out.DerivedMedias = make([]Metadata, 0, len(m.DerivedMedias))
	for _, d := range m.DerivedMedias {
		out.DerivedMedias = append(out.DerivedMedias, d.Clone())
	}

	if m.UpdatedAt != nil {
		t := *m.UpdatedAt
		out.UpdatedAt = &t
	}

	return out
}
