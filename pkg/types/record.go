// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-triage pipeline.
package types

import (
	"strings"
	"time"
)

// Record represents one paper retrieved from the arXiv API. The ID is the
// bare arXiv identifier (e.g. "2301.07041") and uniquely determines the
// record: re-fetching the same paper must not produce a second Record.
type Record struct {
	// ID is the canonical arXiv identifier, version suffix stripped.
	ID string `json:"id" yaml:"id"`

	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract or summary.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Published is the preprint submission date, when the feed provides one.
	Published time.Time `json:"published,omitempty" yaml:"published,omitempty"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Comment is the optional author comment from the feed entry.
	Comment string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// SoundTypes is the closed vocabulary for the sound_type label, in
// canonical output order.
var SoundTypes = []string{"music", "speech", "sound effects"}

// ArchitectureNone is the sentinel value emitted when the model names no
// concrete architecture.
const ArchitectureNone = "Not specified"

// Classification holds the three labels assigned by the language model.
// All three fields are empty when the model's answer could not be parsed.
type Classification struct {
	// NAS is "YES" when the paper concerns neural audio synthesis, "NO" otherwise.
	NAS string `json:"nas" yaml:"nas"`

	// SoundType is a comma-joined, non-empty subset of SoundTypes.
	SoundType string `json:"sound_type" yaml:"sound_type"`

	// Architecture names the model architecture, or ArchitectureNone.
	Architecture string `json:"architecture" yaml:"architecture"`
}

// IsZero reports whether no label was assigned (the unparsed sentinel).
func (c Classification) IsZero() bool {
	return c.NAS == "" && c.SoundType == "" && c.Architecture == ""
}

// ClassifiedRecord pairs a fetched Record with its Classification.
type ClassifiedRecord struct {
	Record         `yaml:",inline"`
	Classification `yaml:",inline"`
}

// TitleKey returns the dedup key for title-based deduplication: the
// lowercased, whitespace-normalized title.
func (r Record) TitleKey() string {
	return strings.Join(strings.Fields(strings.ToLower(r.Title)), " ")
}
