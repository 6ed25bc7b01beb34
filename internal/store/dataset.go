package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"lifeboard/internal/core"
)

// Dataset is a snapshot of every collection, as read from a YAML file.
type Dataset struct {
	Tasks        []core.Task         `yaml:"tasks"`
	Budgets      []core.Budget       `yaml:"budgets"`
	Transactions []core.Transaction  `yaml:"transactions"`
	Journal      []core.JournalEntry `yaml:"journal"`
}

// LoadDataset reads a YAML dataset from path. Bare calendar dates are
// anchored at local midnight.
func LoadDataset(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset: %w", err)
	}
	return DecodeDataset(bytes.NewReader(data))
}

// DecodeDataset parses a YAML dataset, anchoring bare dates in time.Local.
func DecodeDataset(r io.Reader) (Dataset, error) {
	return DecodeDatasetIn(r, time.Local)
}

// DecodeDatasetIn parses a YAML dataset. Unknown keys are rejected so typos in
// hand-written files surface early. Plain YYYY-MM-DD scalars become midnight
// in loc rather than midnight UTC.
func DecodeDatasetIn(r io.Reader, loc *time.Location) (Dataset, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Dataset{}, nil
		}
		return Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}
	anchorDates(&doc, loc)
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}

	var ds Dataset
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&ds); err != nil && !errors.Is(err, io.EOF) {
		return Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}
	return ds, nil
}

func anchorDates(n *yaml.Node, loc *time.Location) {
	if n.Kind == yaml.ScalarNode {
		quoted := n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0
		if quoted || n.ShortTag() != "!!timestamp" {
			return
		}
		if t, err := time.ParseInLocation(time.DateOnly, n.Value, loc); err == nil {
			n.Value = t.Format(time.RFC3339)
		}
		return
	}
	for _, c := range n.Content {
		anchorDates(c, loc)
	}
}
