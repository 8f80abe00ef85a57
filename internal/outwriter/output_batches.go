package outwriter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/schema"
	"github.com/olekukonko/tablewriter/tw"
)

// memberLabel names a batch member, with its part when the unit was split.
func memberLabel(m schema.BatchMember) string {
	if m.Parts <= 1 {
		return m.Path
	}
	if m.Label != "" {
		return fmt.Sprintf("%s (%d/%d: %s)", m.Path, m.Part, m.Parts, m.Label)
	}
	return fmt.Sprintf("%s (%d/%d)", m.Path, m.Part, m.Parts)
}

// batchesView renders batches with one CSV record per member.
func batchesView(batches []schema.Batch, cfg *contract.Config) view {
	var records [][]string
	for _, b := range batches {
		for _, m := range b.Members {
			records = append(records, []string{
				b.ID,
				strconv.Itoa(b.Seq),
				m.UnitID,
				m.Path,
				strconv.Itoa(m.Part),
				strconv.Itoa(m.Parts),
				m.Label,
				strconv.Itoa(m.Cost),
				strconv.FormatBool(b.Processed),
			})
		}
	}

	return view{
		data:   batches,
		header: []string{"batch_id", "seq", "unit_id", "path", "part", "parts", "label", "cost", "processed"},
		rows:   records,
		table: func(w io.Writer) error {
			pathWidth := GetMaxTablePathWidth(cfg, 35)
			var rows [][]string
			total := 0
			for _, b := range batches {
				total += b.Cost
				for i, m := range b.Members {
					seq, cost, processed := "", "", ""
					if i == 0 {
						seq, cost, processed = strconv.Itoa(b.Seq), strconv.Itoa(b.Cost), strconv.FormatBool(b.Processed)
					}
					rows = append(rows, []string{seq, contract.TruncatePath(memberLabel(m), pathWidth), strconv.Itoa(m.Cost), cost, processed})
				}
			}
			if err := renderTable(w, []string{"Batch", "Member", "Cost", "Batch Cost", "Processed"}, rows, tw.AlignLeft); err != nil {
				return err
			}
			for _, b := range batches {
				for _, e := range b.Errors {
					if _, err := fmt.Fprintf(w, "⚠️  batch %d: %s\n", b.Seq, e); err != nil {
						return err
					}
				}
			}
			_, err := fmt.Fprintf(w, "Planned %d batches (total cost: %d, budget: %d)\n", len(batches), total, cfg.Budget)
			return err
		},
	}
}
