// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify augments fetched records with model-assigned labels. The
// loop sends one inference request per record, parses a three-line labeled
// answer, snapshots output and a resume index every N records, and resumes
// past already-classified records on restart. One malformed answer never
// aborts the batch; exhausting the transport retry budget does.
package classify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-triage/internal/checkpoint"
	"github.com/pdiddy/paper-triage/internal/csvio"
	"github.com/pdiddy/paper-triage/pkg/types"
)

// LoadPrompt reads the instruction template and verifies it demands the
// three labeled answer lines the parser expects. A template missing a label
// would make every reply unparseable, so it is rejected at startup.
func LoadPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading prompt file: %w", err)
	}

	prompt := string(data)
	for _, label := range []string{labelNAS, labelSoundType, labelArchitecture} {
		if !strings.Contains(prompt, label+":") {
			return "", fmt.Errorf("prompt file %s does not mention the %q answer line", path, label+":")
		}
	}
	return prompt, nil
}

// Dedup removes records whose ID or lowercased title was already seen,
// preserving input order.
func Dedup(records []types.Record) []types.Record {
	seenID := make(map[string]bool, len(records))
	seenTitle := make(map[string]bool, len(records))

	var unique []types.Record
	for _, r := range records {
		key := r.TitleKey()
		if seenID[r.ID] || (key != "" && seenTitle[key]) {
			continue
		}
		seenID[r.ID] = true
		if key != "" {
			seenTitle[key] = true
		}
		unique = append(unique, r)
	}
	return unique
}

// Summary holds counts from a classification run.
type Summary struct {
	Classified int
	Unparsed   int
	Skipped    int // already classified before this run
}

// Total returns the number of input records accounted for.
func (s Summary) Total() int {
	return s.Classified + s.Unparsed + s.Skipped
}

// Run classifies records[index:] where index comes from the checkpoint, and
// writes the classified CSV plus the resume index under the atomic snapshot
// discipline. On a fatal backend error the rows classified so far are
// flushed before returning.
func Run(ctx context.Context, backend Backend, records []types.Record, prompt string, cfg types.ClassifyConfig, log zerolog.Logger, w io.Writer) (Summary, error) {
	if cfg.CheckpointFreq < 1 {
		return Summary{}, fmt.Errorf("checkpoint_freq must be at least 1")
	}

	index, rows, err := resume(cfg, len(records), log)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Skipped: index}

	flush := func(nextIndex int) error {
		if err := csvio.WriteClassified(cfg.CSVFile, rows); err != nil {
			return fmt.Errorf("writing output CSV: %w", err)
		}
		state := checkpoint.ClassifyState{Index: nextIndex, UpdatedAt: time.Now().UTC()}
		if err := checkpoint.Save(cfg.CheckpointFile, state); err != nil {
			return fmt.Errorf("writing checkpoint: %w", err)
		}
		return nil
	}

	for i := index; i < len(records); i++ {
		// Fixed pause between successive inference calls.
		if i > index && cfg.SleepTime > 0 {
			select {
			case <-ctx.Done():
				if ferr := flush(i); ferr != nil {
					log.Error().Err(ferr).Msg("checkpoint flush failed")
				}
				return summary, ctx.Err()
			case <-time.After(cfg.SleepTime):
			}
		}

		r := records[i]
		reply, err := backend.Complete(ctx, buildMessage(prompt, r))
		if err != nil {
			if ferr := flush(i); ferr != nil {
				log.Error().Err(ferr).Msg("checkpoint flush failed")
			}
			return summary, fmt.Errorf("classifying %s: %w", r.ID, err)
		}

		cls, perr := ParseAnswer(reply)
		if perr != nil {
			// Emit the row with empty labels so the output stays aligned
			// with its input; a rerun can target unclassified rows.
			log.Warn().Str("id", r.ID).Err(perr).Msg("unparseable answer, labels left empty")
			summary.Unparsed++
			cls = types.Classification{}
		} else {
			summary.Classified++
		}
		rows = append(rows, types.ClassifiedRecord{Record: r, Classification: cls})

		log.Debug().Str("id", r.ID).Str("nas", cls.NAS).Msg("record classified")

		if (i+1)%cfg.CheckpointFreq == 0 {
			if err := flush(i + 1); err != nil {
				return summary, err
			}
			log.Debug().Int("index", i+1).Msg("checkpoint written")
		}
	}

	if err := flush(len(records)); err != nil {
		return summary, err
	}

	fmt.Fprintf(w, "Classified %d record(s), %d unparsed, %d already done\n",
		summary.Classified, summary.Unparsed, summary.Skipped)
	fmt.Fprintf(w, "Output: %s\n", cfg.CSVFile)
	return summary, nil
}

// resume loads the checkpoint index and, for a mid-batch restart, the rows
// already written to the output CSV so the final file stays complete.
func resume(cfg types.ClassifyConfig, total int, log zerolog.Logger) (int, []types.ClassifiedRecord, error) {
	var state checkpoint.ClassifyState
	found, err := checkpoint.Load(cfg.CheckpointFile, &state)
	if err != nil {
		return 0, nil, err
	}
	if !found {
		return 0, nil, nil
	}

	index := state.Index
	if index < 0 {
		index = 0
	}
	if index > total {
		index = total
	}
	if index == 0 {
		return 0, nil, nil
	}

	rows, err := csvio.ReadClassified(cfg.CSVFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn().Str("path", cfg.CSVFile).Msg("checkpoint present but output CSV missing, restarting")
			return 0, nil, nil
		}
		return 0, nil, fmt.Errorf("reloading output CSV: %w", err)
	}

	// The CSV and the index are written in sequence, not as one atomic
	// unit, so a crash between the two writes leaves the CSV one batch
	// ahead of the index. The index is authoritative: rows past it are
	// dropped and re-classified rather than duplicated.
	if len(rows) > index {
		log.Warn().Int("index", index).Int("rows", len(rows)).
			Msg("output CSV ahead of checkpoint, dropping rows past the index")
		rows = rows[:index]
	}
	if len(rows) < index {
		log.Warn().Int("index", index).Int("rows", len(rows)).
			Msg("output CSV behind checkpoint, restarting")
		return 0, nil, nil
	}

	log.Info().Int("index", index).Msg("resuming from checkpoint")
	return index, rows, nil
}

// buildMessage combines the instruction template with one record's metadata.
func buildMessage(prompt string, r types.Record) string {
	return fmt.Sprintf("%s\n\ntitle: %s\nabstract: %s\n", prompt, r.Title, r.Abstract)
}
