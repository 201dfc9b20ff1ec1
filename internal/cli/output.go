package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Monetiqai/Monetiq-sub003/internal/domain/adpack"
	"github.com/Monetiqai/Monetiq-sub003/internal/services"
)

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// renderTable draws a rounded table on a terminal and CSV otherwise.
func renderTable(w io.Writer, headers []string, rows [][]string) {
	tw := table.NewWriter()
	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	if isTerminal(w) {
		tw.SetStyle(table.StyleRounded)
		fmt.Fprintln(w, tw.Render())
		return
	}
	fmt.Fprintln(w, tw.RenderCSV())
}

var variantHeaders = []string{"ID", "TYPE", "TIER", "STATUS", "WINNER", "SHOTS", "FAILURE"}

func variantRows(variants []*adpack.Variant) [][]string {
	rows := make([][]string, 0, len(variants))
	for _, v := range variants {
		if v == nil {
			continue
		}
		tier := "FAST"
		if v.IsFinal {
			tier = "FINAL"
		}
		shots := "?"
		if m, err := v.ShotMap(); err == nil {
			shots = fmt.Sprintf("%d/%d", len(adpack.RequiredShots)-len(adpack.Missing(m)), len(adpack.RequiredShots))
		}
		rows = append(rows, []string{
			v.ID.String(), string(v.VariantType), tier, string(v.Status),
			strconv.FormatBool(v.IsWinner), shots, v.FailureReason,
		})
	}
	return rows
}

func printVariants(w io.Writer, variants ...*adpack.Variant) {
	renderTable(w, variantHeaders, variantRows(variants))
}

func printPack(w io.Writer, pack *adpack.Pack, variants []*adpack.Variant) {
	if pack != nil {
		fmt.Fprintf(w, "pack %s  %s / %s / %s  status=%s\n", pack.ID, pack.ProductName, pack.Category, pack.Template, pack.Status)
	}
	printVariants(w, variants...)
}

func printPacks(w io.Writer, packs []*adpack.Pack) {
	rows := make([][]string, 0, len(packs))
	for _, p := range packs {
		rows = append(rows, []string{p.ID.String(), p.ProductName, string(p.Category), string(p.Template), string(p.Status), p.CreatedAt.Format("2006-01-02 15:04")})
	}
	renderTable(w, []string{"ID", "PRODUCT", "CATEGORY", "TEMPLATE", "STATUS", "CREATED"}, rows)
}

func printGenerate(w io.Writer, res *services.GenerateResult) {
	fmt.Fprintf(w, "generation %s  status=%s  rendered=%d/%d  failed=%d\n",
		res.GenerationID, res.Status, res.Totals.ShotsRendered, res.Totals.Shots, res.Totals.Failed)
	if res.Error != "" {
		fmt.Fprintf(w, "error: %s\n", res.Error)
	}
	rows := make([][]string, 0, len(res.Plan))
	for _, p := range res.Plan {
		rows = append(rows, []string{p.VariantID.String(), string(p.VariantType), p.Model, strconv.Itoa(len(p.Shots)), p.Angle})
	}
	renderTable(w, []string{"VARIANT", "TYPE", "MODEL", "SHOTS", "ANGLE"}, rows)
}

func printAssets(w io.Writer, assets []*adpack.AdAsset) {
	rows := make([][]string, 0, len(assets))
	for _, a := range assets {
		rows = append(rows, []string{string(a.ShotType), a.Role, a.SpatialRole, a.URL})
	}
	renderTable(w, []string{"SHOT", "ROLE", "SPATIAL ROLE", "URL"}, rows)
}
