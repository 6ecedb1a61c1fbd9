package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/dictype/internal/model"
)

// ErrUnsupportedFormat is returned for files that are neither JSON libraries
// nor bilingual text.
var ErrUnsupportedFormat = errors.New("unsupported library file: expected JSON or English/Chinese text")

// ErrNoItems is returned when a file parses but yields nothing to practice.
var ErrNoItems = errors.New("no items found in file")

// timestamp accepts RFC 3339 strings and unix milliseconds.
type timestamp struct {
	time.Time
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	}
	ms, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	t.Time = time.UnixMilli(int64(ms))
	return nil
}

type jsonItem struct {
	ID                string    `json:"id"`
	Chinese           string    `json:"chinese"`
	English           string    `json:"english"`
	Type              string    `json:"type"`
	CreatedAt         timestamp `json:"createdAt"`
	SourceLibraryID   string    `json:"sourceLibraryId"`
	SourceLibraryName string    `json:"sourceLibraryName"`
}

type jsonLibrary struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Items     []jsonItem `json:"items"`
	CreatedAt timestamp  `json:"createdAt"`
}

// ImportJSON decodes an exported library collection. A single library object
// is accepted as well as an array.
func ImportJSON(r io.Reader) ([]model.Library, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read library json: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	var wire []jsonLibrary
	if len(raw) > 0 && raw[0] == '{' {
		var single jsonLibrary
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, fmt.Errorf("failed to decode library json: %w", err)
		}
		wire = []jsonLibrary{single}
	} else if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode library json: %w", err)
	}

	libs := make([]model.Library, 0, len(wire))
	for _, wl := range wire {
		lib := model.Library{
			ID:        wl.ID,
			Name:      strings.TrimSpace(wl.Name),
			CreatedAt: wl.CreatedAt.Time,
			Items:     make([]model.Item, 0, len(wl.Items)),
		}
		for _, wi := range wl.Items {
			if strings.TrimSpace(wi.English) == "" {
				continue
			}
			itemType := model.ItemType(wi.Type)
			if itemType != model.ItemWord && itemType != model.ItemSentence {
				itemType = ClassifyType(wi.English)
			}
			id := wi.ID
			if id == "" {
				id = uuid.NewString()
			}
			lib.Items = append(lib.Items, model.Item{
				ID:                id,
				Chinese:           wi.Chinese,
				English:           wi.English,
				Type:              itemType,
				CreatedAt:         wi.CreatedAt.Time,
				SourceLibraryID:   wi.SourceLibraryID,
				SourceLibraryName: wi.SourceLibraryName,
			})
		}
		libs = append(libs, lib)
	}
	return libs, nil
}

// ExportJSON writes libs as indented JSON.
func ExportJSON(w io.Writer, libs []model.Library) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(libs); err != nil {
		return fmt.Errorf("failed to encode libraries: %w", err)
	}
	return nil
}

// ReadLibraryFile loads libraries from a JSON export or a bilingual text file.
// Text files become one library named name, or after the file when name is empty.
func ReadLibraryFile(path, name string) ([]model.Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if strings.EqualFold(filepath.Ext(path), ".json") || (len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{')) {
		libs, err := ImportJSON(bytes.NewReader(trimmed))
		if err != nil {
			return nil, err
		}
		if name != "" && len(libs) == 1 {
			libs[0].Name = name
		}
		return libs, nil
	}

	content := string(data)
	if !DetectText(content) {
		return nil, ErrUnsupportedFormat
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	lib := ParseText(content, name)
	if len(lib.Items) == 0 {
		return nil, ErrNoItems
	}
	return []model.Library{lib}, nil
}
