// Package dataset cleans labelled SMS datasets used to tune the classifier.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"spendsense/internal/classify"
)

// MinSMSLength is the shortest message kept; anything at or below is noise.
const MinSMSLength = 10

var ErrNoCategoryColumn = errors.New("dataset: no Category column")

// Options tune Clean.
type Options struct {
	// Reclassify refines rows labelled Other from their SMS text.
	Reclassify bool
}

// Stats describes what Clean did.
type Stats struct {
	Read         int
	Written      int
	Blank        int
	Duplicates   int
	TooShort     int
	Unknown      int
	Reclassified int
	Categories   map[string]int
}

// Labels returns the category names, most frequent first.
func (s Stats) Labels() []string {
	out := make([]string, 0, len(s.Categories))
	for c := range s.Categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := s.Categories[out[i]], s.Categories[out[j]]
		if ci != cj {
			return ci > cj
		}
		return out[i] < out[j]
	})
	return out
}

// Clean reads an SMS,Category CSV from r and writes the cleaned rows to w.
// The SMS text is the first column; the label is the column headed Category.
func Clean(r io.Reader, w io.Writer, opts Options) (Stats, error) {
	stats := Stats{Categories: make(map[string]int)}

	in := csv.NewReader(r)
	in.FieldsPerRecord = -1
	header, err := in.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return stats, errors.New("dataset: empty input")
		}
		return stats, fmt.Errorf("dataset: read header: %w", err)
	}
	catCol := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), "category") {
			catCol = i
			break
		}
	}
	if catCol <= 0 {
		return stats, ErrNoCategoryColumn
	}

	out := csv.NewWriter(w)
	if err := out.Write([]string{"SMS", "Category"}); err != nil {
		return stats, fmt.Errorf("dataset: write header: %w", err)
	}

	title := cases.Title(language.English)
	seen := make(map[string]bool)
	for {
		row, err := in.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("dataset: line %d: %w", stats.Read+2, err)
		}
		stats.Read++

		if len(row) <= catCol || strings.TrimSpace(row[0]) == "" || strings.TrimSpace(row[catCol]) == "" {
			stats.Blank++
			continue
		}
		text := strings.ToLower(strings.TrimSpace(row[0]))
		label := title.String(strings.TrimSpace(row[catCol]))

		if seen[text] {
			stats.Duplicates++
			continue
		}
		seen[text] = true

		if len([]rune(text)) <= MinSMSLength {
			stats.TooShort++
			continue
		}
		if label == classify.LabelUnknown {
			stats.Unknown++
			continue
		}
		if opts.Reclassify && label == classify.LabelOther {
			if label = classify.Reclassify(text); label != classify.LabelOther {
				stats.Reclassified++
			}
		}

		if err := out.Write([]string{text, label}); err != nil {
			return stats, fmt.Errorf("dataset: write: %w", err)
		}
		stats.Written++
		stats.Categories[label]++
	}

	out.Flush()
	if err := out.Error(); err != nil {
		return stats, fmt.Errorf("dataset: flush: %w", err)
	}
	return stats, nil
}
