// Package corpus loads the read-only complaint chunk table.
package corpus

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrEmptyText is returned when a row carries no passage text.
var ErrEmptyText = errors.New("chunk text is empty")

// Chunk is one passage of complaint text.
type Chunk struct {
	ComplaintID string `json:"complaint_id"`
	ChunkID     string `json:"chunk_id"`
	Text        string `json:"text"`
}

// Store is an immutable ordered collection of chunks. Position i corresponds
// to row i of the vector index.
type Store struct {
	chunks []Chunk
}

// NewStore wraps chunks in a Store. The slice is copied.
func NewStore(chunks []Chunk) *Store {
	out := make([]Chunk, len(chunks))
	copy(out, chunks)
	return &Store{chunks: out}
}

// Len returns the number of chunks.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.chunks)
}

// At returns the chunk at position i.
func (s *Store) At(i int) (Chunk, bool) {
	if s == nil || i < 0 || i >= len(s.chunks) {
		return Chunk{}, false
	}
	return s.chunks[i], true
}

// Load reads a corpus table, choosing the decoder by file extension.
func Load(path string) (*Store, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer file.Close()

	var chunks []Chunk
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		chunks, err = ReadCSV(file)
	case ".jsonl", ".ndjson", ".json":
		chunks, err = ReadJSONL(file)
	default:
		return nil, fmt.Errorf("unsupported corpus format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	return &Store{chunks: chunks}, nil
}

type jsonRow struct {
	ComplaintID json.RawMessage `json:"complaint_id"`
	ChunkID     json.RawMessage `json:"chunk_id"`
	Text        string          `json:"text"`
}

// ReadJSONL decodes one chunk per line. Identifiers may be JSON strings or numbers.
func ReadJSONL(r io.Reader) ([]Chunk, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 8*1024*1024)

	var chunks []Chunk
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var row jsonRow
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, fmt.Errorf("parse line %d: %w", lineNo, err)
		}
		complaintID, err := identifier(row.ComplaintID)
		if err != nil {
			return nil, fmt.Errorf("line %d complaint_id: %w", lineNo, err)
		}
		chunkID, err := identifier(row.ChunkID)
		if err != nil {
			return nil, fmt.Errorf("line %d chunk_id: %w", lineNo, err)
		}
		if strings.TrimSpace(row.Text) == "" {
			return nil, fmt.Errorf("line %d: %w", lineNo, ErrEmptyText)
		}
		chunks = append(chunks, Chunk{ComplaintID: complaintID, ChunkID: chunkID, Text: row.Text})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return chunks, nil
}

func identifier(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", fmt.Errorf("missing")
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	// pandas exports integer columns containing NaN as floats
	f, err := n.Float64()
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

// ReadCSV decodes a table whose header names complaint_id, chunk_id and text in any order.
func ReadCSV(r io.Reader) ([]Chunk, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, required := range []string{"complaint_id", "chunk_id", "text"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var chunks []Chunk
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		get := func(name string) string {
			i := cols[name]
			if i >= len(record) {
				return ""
			}
			return record[i]
		}
		text := get("text")
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("row %d: %w", row, ErrEmptyText)
		}
		chunks = append(chunks, Chunk{
			ComplaintID: strings.TrimSpace(get("complaint_id")),
			ChunkID:     strings.TrimSpace(get("chunk_id")),
			Text:        text,
		})
	}
	return chunks, nil
}
