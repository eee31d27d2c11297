// Package audio reads the generic tags a recording may carry alongside its
// vendor metadata: Vorbis comments in FLAC, LIST/INFO entries and embedded
// ID3 chunks in WAVE.
package audio

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"

	"github.com/ecoacoustics/emu/core"
	"github.com/ecoacoustics/emu/core/stream"
	"github.com/ecoacoustics/emu/core/wave"
)

// Categories used on the fields this package returns.
const (
	CategoryVorbis = "Vorbis"
	CategoryInfo   = "WAV INFO"
	CategoryID3    = "WAV ID3"
)

// maxRawValue drops raw tag values too large to be useful in a report,
// such as embedded pictures.
const maxRawValue = 512

// ─── FLAC ────────────────────────────────────────────────────────────────────

// ReadVorbisTags reads every Vorbis comment of a FLAC stream into a map.
// Keys are lower-cased by the tag reader.
func ReadVorbisTags(r io.ReadSeeker) (map[string]string, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	t, err := tag.ReadFLACTags(r)
	if err != nil {
		return nil, fmt.Errorf("could not read vorbis comments: %w", err)
	}

	out := make(map[string]string, len(t.Raw()))
	for k, v := range t.Raw() {
		if s := rawString(v); s != "" {
			out[k] = s
		}
	}
	return out, nil
}

// VorbisFields renders a comment map as sorted fields.
func VorbisFields(tags map[string]string) []core.MetaField {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]core.MetaField, 0, len(keys))
	for _, k := range keys {
		v := tags[k]
		if len(v) >= maxRawValue {
			continue
		}
		fields = append(fields, core.MetaField{Key: k, Value: v, Category: CategoryVorbis})
	}
	return fields
}

func rawString(v interface{}) string {
	switch vt := v.(type) {
	case nil:
		return ""
	case string:
		return vt
	case []string:
		return strings.Join(vt, "; ")
	case int:
		return fmt.Sprintf("%d", vt)
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

// ─── WAV ─────────────────────────────────────────────────────────────────────

// WAV INFO field IDs → human names
var infoChunkNames = map[string]string{
	"IARL": "ArchivalLocation",
	"IART": "Artist",
	"ICMS": "Commissioned",
	"ICMT": "Comment",
	"ICOP": "Copyright",
	"ICRD": "DateCreated",
	"IENG": "Engineer",
	"IGNR": "Genre",
	"IKEY": "Keywords",
	"IMED": "Medium",
	"INAM": "Title",
	"IPRD": "Product",
	"ISBJ": "Subject",
	"ISFT": "Software",
	"ISRC": "Source",
	"ISRF": "SourceForm",
	"ITCH": "Technician",
}

// InfoName returns the human name of a LIST/INFO id, or the id itself.
func InfoName(id string) string {
	if name, ok := infoChunkNames[id]; ok {
		return name
	}
	return id
}

// InfoFields renders LIST/INFO entries, skipping empty values.
func InfoFields(entries []wave.InfoEntry) []core.MetaField {
	var fields []core.MetaField
	for _, e := range entries {
		if e.Value == "" {
			continue
		}
		fields = append(fields, core.MetaField{
			Key:      InfoName(e.ID),
			Value:    e.Value,
			Category: CategoryInfo,
			Raw:      e.ID,
		})
	}
	return fields
}

// ReadID3Chunk parses the ID3v2 tag held in a WAVE "id3 " chunk payload.
func ReadID3Chunk(r io.ReaderAt, payload stream.Range) ([]core.MetaField, error) {
	sr := io.NewSectionReader(r, int64(payload.Start), int64(payload.Length))
	t, err := id3v2.ParseReader(sr, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("could not read id3 chunk: %w", err)
	}

	var fields []core.MetaField
	add := func(key, val string) {
		if val != "" {
			fields = append(fields, core.MetaField{Key: key, Value: val, Category: CategoryID3})
		}
	}
	add("Title", t.Title())
	add("Artist", t.Artist())
	add("Album", t.Album())
	add("Year", t.Year())
	add("Genre", t.Genre())
	for _, f := range t.GetFrames(t.CommonID("Comments")) {
		if c, ok := f.(id3v2.CommentFrame); ok {
			add("Comment", c.Text)
		}
	}
	return fields, nil
}

// Artist returns the first artist-like value among fields, which recorders
// commonly use for the device name.
func Artist(fields []core.MetaField) string {
	for _, f := range fields {
		if strings.EqualFold(f.Key, "artist") {
			return f.Value
		}
	}
	return ""
}
