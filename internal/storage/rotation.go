package storage

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// RotationIndex persists the index of the feed to try first on the next
// run.
type RotationIndex struct {
	path string
}

func NewRotationIndex(path string) *RotationIndex {
	return &RotationIndex{path: path}
}

// Load returns the saved index reduced modulo n. A missing or unreadable
// file yields 0.
func (r *RotationIndex) Load(n int) int {
	if n <= 0 {
		return 0
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		return 0
	}
	i, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || i < 0 {
		return 0
	}
	return i % n
}

// Save stores i.
func (r *RotationIndex) Save(i int) error {
	if err := os.WriteFile(r.path, []byte(strconv.Itoa(i)), 0644); err != nil {
		return fmt.Errorf("failed to save feed index: %w", err)
	}
	return nil
}
