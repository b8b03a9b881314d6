// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-triage/pkg/types"
)

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  types.Classification
	}{
		{
			name:  "canonical answer",
			reply: "NAS: YES\nSound Type: sound effects\nArchitecture: GAN",
			want:  types.Classification{NAS: "YES", SoundType: "sound effects", Architecture: "GAN"},
		},
		{
			name:  "case and whitespace variations",
			reply: "nas:  yes \nsound type: Music, SPEECH\narchitecture:  Diffusion ",
			want:  types.Classification{NAS: "YES", SoundType: "music, speech", Architecture: "Diffusion"},
		},
		{
			name:  "negative with unknown architecture",
			reply: "NAS: NO\nSound Type: speech\nArchitecture: unknown",
			want:  types.Classification{NAS: "NO", SoundType: "speech", Architecture: "Not specified"},
		},
		{
			name:  "singular sound effect form",
			reply: "NAS: YES\nSound Type: sound effect\nArchitecture: WaveNet",
			want:  types.Classification{NAS: "YES", SoundType: "sound effects", Architecture: "WaveNet"},
		},
		{
			name:  "out-of-vocabulary sound types are dropped",
			reply: "NAS: YES\nSound Type: ambient, music, music\nArchitecture: VAE",
			want:  types.Classification{NAS: "YES", SoundType: "music", Architecture: "VAE"},
		},
		{
			name:  "chatter around the labels is ignored",
			reply: "Here are the tags:\nNAS: YES\nSound Type: music\nArchitecture: Transformer\nHope this helps!",
			want:  types.Classification{NAS: "YES", SoundType: "music", Architecture: "Transformer"},
		},
		{
			name:  "empty architecture becomes the sentinel",
			reply: "NAS: NO\nSound Type: speech\nArchitecture:",
			want:  types.Classification{NAS: "NO", SoundType: "speech", Architecture: "Not specified"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnswer(tt.reply)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAnswerShapeMismatches(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"empty reply", ""},
		{"prose only", "This paper is about neural audio synthesis."},
		{"missing architecture line", "NAS: YES\nSound Type: music"},
		{"missing sound type line", "NAS: YES\nArchitecture: GAN"},
		{"unrecognized NAS value", "NAS: maybe\nSound Type: music\nArchitecture: GAN"},
		{"no recognized sound type", "NAS: YES\nSound Type: birdsong\nArchitecture: GAN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnswer(tt.reply)
			assert.Error(t, err)
		})
	}
}
