// Package render turns search results into human and machine readable output.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"
	"sigs.k8s.io/yaml"

	"github.com/umafamily/affinity/pkg/logger"
	"github.com/umafamily/affinity/pkg/types"
)

// EmptyResultMessage is printed by the table writer when nothing was found.
const EmptyResultMessage = "No valid combinations found."

// Format selects an output writer.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates s as an output format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format: %s", s)
	}
}

// Resolver maps character ids to display labels. A missing name is logged
// once per id and the raw id is shown in its place.
type Resolver struct {
	names  map[types.EntityID]string
	logger logger.Logger

	mu     sync.Mutex
	warned map[types.EntityID]struct{}
}

func NewResolver(entities []types.Entity, log logger.Logger) *Resolver {
	names := make(map[types.EntityID]string, len(entities))
	for _, e := range entities {
		if e.Name != "" {
			names[e.ID] = e.Name
		}
	}
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &Resolver{
		names:  names,
		logger: log,
		warned: make(map[types.EntityID]struct{}),
	}
}

// Name returns the name of id, or its decimal form when unknown.
func (r *Resolver) Name(id types.EntityID) string {
	if name, ok := r.names[id]; ok {
		return name
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.warned[id]; !ok {
		r.warned[id] = struct{}{}
		r.logger.Warn("missing character name", zap.Int64("id", int64(id)))
	}
	return id.String()
}

// Label formats id as "Name (id)".
func (r *Resolver) Label(id types.EntityID) string {
	return fmt.Sprintf("%s (%d)", r.Name(id), id)
}

// Row is one rendered family.
type Row struct {
	Parent1 string `json:"parent_1"`
	GP1     string `json:"gp_1"`
	GP2     string `json:"gp_2"`
	Parent2 string `json:"parent_2"`
	GP3     string `json:"gp_3"`
	GP4     string `json:"gp_4"`
	Score   int    `json:"score"`
}

var tableHeader = []string{"Parent 1 (O)", "GP1 (Z)", "GP2 (J)", "Parent 2 (K)", "GP3 (X)", "GP4 (Y)", "Score"}

// Rows resolves the labels of every assignment, keeping their order.
func (r *Resolver) Rows(results []types.Assignment) []Row {
	rows := make([]Row, 0, len(results))
	for _, a := range results {
		rows = append(rows, Row{
			Parent1: r.Label(a.O),
			GP1:     r.Label(a.Z),
			GP2:     r.Label(a.J),
			Parent2: r.Label(a.K),
			GP3:     r.Label(a.X),
			GP4:     r.Label(a.Y),
			Score:   a.Score,
		})
	}
	return rows
}

// Write renders results to w in the given format.
func Write(w io.Writer, format Format, r *Resolver, results []types.Assignment) error {
	rows := r.Rows(results)

	switch format {
	case FormatTable:
		return writeTable(w, rows)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case FormatYAML:
		out, err := yaml.Marshal(rows)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func writeTable(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, EmptyResultMessage)
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(tableHeader)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	for _, row := range rows {
		table.Append([]string{row.Parent1, row.GP1, row.GP2, row.Parent2, row.GP3, row.GP4, strconv.Itoa(row.Score)})
	}
	table.Render()
	return nil
}
