// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"fmt"
	"strings"

	"github.com/pdiddy/paper-triage/pkg/types"
)

// Answer labels the model is instructed to emit, one per line.
const (
	labelNAS          = "NAS"
	labelSoundType    = "Sound Type"
	labelArchitecture = "Architecture"
)

// ParseAnswer extracts the three labeled lines from the model's reply and
// normalizes them. A reply that does not match the expected shape returns an
// error; callers treat that as a per-record classification failure, never as
// a reason to abort the batch.
func ParseAnswer(reply string) (types.Classification, error) {
	labels := make(map[string]string)
	for _, line := range strings.Split(reply, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		labels[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	nas, err := parseNAS(labels[strings.ToLower(labelNAS)])
	if err != nil {
		return types.Classification{}, err
	}

	soundType, err := parseSoundType(labels[strings.ToLower(labelSoundType)])
	if err != nil {
		return types.Classification{}, err
	}

	arch, ok := labels[strings.ToLower(labelArchitecture)]
	if !ok {
		return types.Classification{}, fmt.Errorf("missing %q line", labelArchitecture)
	}

	return types.Classification{
		NAS:          nas,
		SoundType:    soundType,
		Architecture: normalizeArchitecture(arch),
	}, nil
}

// parseNAS normalizes the yes/no answer. Anything that does not start with
// YES or NO is a shape mismatch.
func parseNAS(value string) (string, error) {
	v := strings.ToUpper(strings.TrimSpace(value))
	switch {
	case strings.HasPrefix(v, "YES"):
		return "YES", nil
	case strings.HasPrefix(v, "NO"):
		return "NO", nil
	default:
		return "", fmt.Errorf("unrecognized %s value %q", labelNAS, value)
	}
}

// parseSoundType keeps only values from the closed vocabulary, preserving
// the model's order and dropping repeats. An answer with no recognized value
// is a shape mismatch.
func parseSoundType(value string) (string, error) {
	allowed := make(map[string]bool, len(types.SoundTypes))
	for _, s := range types.SoundTypes {
		allowed[s] = true
	}

	var kept []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(value, ",") {
		p := strings.Join(strings.Fields(strings.ToLower(part)), " ")
		// Tolerate the singular form the model sometimes produces.
		if p == "sound effect" {
			p = "sound effects"
		}
		if allowed[p] && !seen[p] {
			seen[p] = true
			kept = append(kept, p)
		}
	}

	if len(kept) == 0 {
		return "", fmt.Errorf("no recognized %s value in %q", labelSoundType, value)
	}
	return strings.Join(kept, ", "), nil
}

// normalizeArchitecture maps empty and unknown-ish answers to the sentinel.
func normalizeArchitecture(value string) string {
	v := strings.TrimSpace(value)
	switch strings.ToLower(v) {
	case "", "unknown", "none", "not specified", "n/a":
		return types.ArchitectureNone
	}
	return v
}
