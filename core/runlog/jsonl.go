package runlog

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// JSONLStore stores records in a JSONL file.
type JSONLStore struct {
	path string
	mu   sync.Mutex
}

func NewJSONLStore(path string) (*JSONLStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	if cerr := f.Close(); cerr != nil {
		return nil, cerr
	}
	return &JSONLStore{path: path}, nil
}

func (s *JSONLStore) Append(ctx context.Context, rec Record) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return json.NewEncoder(f).Encode(rec)
}

func (s *JSONLStore) Query(ctx context.Context, q Query) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := scanFiles(ctx, []string{s.path}, q.Match)
	if err != nil {
		return nil, err
	}
	return limit(res, q.Limit), nil
}

func (s *JSONLStore) Get(ctx context.Context, runID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := scanFiles(ctx, []string{s.path}, func(r Record) bool { return r.RunID == runID })
	if err != nil {
		return Record{}, err
	}
	return find(res, runID)
}

// Close is a no-op; the file is opened per call.
func (s *JSONLStore) Close() error { return nil }

// scanFiles decodes every line of every file, skipping lines that are not
// valid records, and keeps those accepted by keep.
func scanFiles(ctx context.Context, files []string, keep func(Record) bool) ([]Record, error) {
	var res []Record
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		res, err = scanReader(f, res, keep)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

func scanReader(r io.Reader, res []Record, keep func(Record) bool) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		if keep(rec) {
			res = append(res, rec)
		}
	}
	return res, scanner.Err()
}
