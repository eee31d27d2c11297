// Package extract folds the facts decoded from one recording into a
// core.Recording.
//
// Extractors run in the fixed order of Table. Generic container extractors
// come first and only fill fields that are still empty; vendor extractors
// follow and overwrite the fields they own. No extractor clears a field.
package extract

import (
	"context"
	"io"
	"log/slog"

	"github.com/ecoacoustics/emu/core"
	"github.com/ecoacoustics/emu/core/stream"
)

// Kind identifies an extractor.
type Kind int

// Extractor kinds, in the order they run.
const (
	KindWaveHeader Kind = iota
	KindFlacHeader
	KindChecksum
	KindInfoTags
	KindWaveCues
	KindWamd
	KindAudioMoth
	KindFrontierLabsComment
	KindFrontierLabsLog
)

var kindNames = map[Kind]string{
	KindWaveHeader:          "WaveHeader",
	KindFlacHeader:          "FlacHeader",
	KindChecksum:            "Checksum",
	KindInfoTags:            "InfoTags",
	KindWaveCues:            "WaveCues",
	KindWamd:                "Wamd",
	KindAudioMoth:           "AudioMoth",
	KindFrontierLabsComment: "FrontierLabsComment",
	KindFrontierLabsLog:     "FrontierLabsLog",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "Unknown"
}

// Extractor is one entry of the extraction table.
type Extractor struct {
	Kind Kind
	// CanProcess is a cheap applicability test. It must not decode more
	// than headers.
	CanProcess func(*Target) bool
	// Process decodes its facts into rec. A structural error means the
	// extractor turned out not to apply after all.
	Process func(ctx context.Context, t *Target, rec *core.Recording) error
}

// Table is the closed, ordered set of extractors emu runs.
var Table = []Extractor{
	{Kind: KindWaveHeader, CanProcess: (*Target).IsWave, Process: processWaveHeader},
	{Kind: KindFlacHeader, CanProcess: (*Target).IsFlac, Process: processFlacHeader},
	{Kind: KindChecksum, CanProcess: canChecksum, Process: processChecksum},
	{Kind: KindInfoTags, CanProcess: canInfoTags, Process: processInfoTags},
	{Kind: KindWaveCues, CanProcess: canWaveCues, Process: processWaveCues},
	{Kind: KindWamd, CanProcess: canWamd, Process: processWamd},
	{Kind: KindAudioMoth, CanProcess: canAudioMoth, Process: processAudioMoth},
	{Kind: KindFrontierLabsComment, CanProcess: (*Target).IsFlac, Process: processFrontierLabsComment},
	{Kind: KindFrontierLabsLog, CanProcess: canFrontierLabsLog, Process: processFrontierLabsLog},
}

// Run extracts every fact it can from t using Table.
func Run(ctx context.Context, t *Target, logger *slog.Logger) (*core.Recording, error) {
	return RunTable(ctx, t, Table, logger)
}

// RunTable folds table over t. An extractor failure becomes an error notice
// on the record and the fold continues; only cancellation stops it early.
func RunTable(ctx context.Context, t *Target, table []Extractor, logger *slog.Logger) (*core.Recording, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("path", t.Path)

	rec := core.NewRecording(t.Path, t.Format, t.Length)
	for _, ex := range table {
		if err := ctx.Err(); err != nil {
			return rec, err
		}
		name := ex.Kind.String()
		if !ex.CanProcess(t) {
			continue
		}
		err := ex.Process(ctx, t, rec)
		switch {
		case err == nil:
			rec.ExtractedBy = append(rec.ExtractedBy, name)
			logger.Debug("extracted", "extractor", name)
		case stream.IsStructural(err):
			logger.Debug("extractor does not apply", "extractor", name, "reason", err)
		default:
			rec.AddNotice(name, core.LevelError, err.Error())
			logger.Warn("extractor failed", "extractor", name, "error", err)
		}
	}
	return rec, nil
}
