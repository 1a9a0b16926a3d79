package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-tiledb/internal/datatype"
	"github.com/robert-malhotra/go-tiledb/internal/filter"
	"github.com/robert-malhotra/go-tiledb/tiledb"
)

func newCreateCmd(a *app) *cobra.Command {
	var (
		typ   string
		dims  []string
		attrs []string
	)
	cmd := &cobra.Command{
		Use:   "create <array-uri>",
		Short: "Create a dense array",
		Example: `  tiledb create arrays/dense --type int32 \
    --dim rows:1:4:2 --dim cols:1:4:2 \
    --attr a:int32 --attr s:char:var:zstd`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := buildSchema(typ, dims, attrs)
			if err != nil {
				return err
			}
			if err := a.sm.CreateArray(cmd.Context(), args[0], schema); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&typ, "type", "int32", "datatype of every dimension")
	cmd.Flags().StringArrayVar(&dims, "dim", nil, "dimension as name:low:high[:extent]")
	cmd.Flags().StringArrayVar(&attrs, "attr", nil, "attribute as name:type[:cells|var][:filter[=level],...]")
	cmd.MarkFlagRequired("dim")
	cmd.MarkFlagRequired("attr")
	return cmd
}

func buildSchema(typ string, dims, attrs []string) (*tiledb.ArraySchema, error) {
	dt, err := datatype.Parse(typ)
	if err != nil {
		return nil, err
	}
	domain := tiledb.NewDomain(dt)
	for _, spec := range dims {
		d, err := parseDimension(dt, spec)
		if err != nil {
			return nil, err
		}
		if err := domain.AddDimension(d); err != nil {
			return nil, err
		}
	}
	schema := tiledb.NewArraySchema(domain)
	for _, spec := range attrs {
		attr, err := parseAttribute(spec)
		if err != nil {
			return nil, err
		}
		if err := schema.AddAttribute(attr); err != nil {
			return nil, err
		}
	}
	return schema, nil
}

func parseDimension(dt tiledb.Datatype, spec string) (*tiledb.Dimension, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 3 && len(parts) != 4 {
		return nil, fmt.Errorf("dimension %q: want name:low:high[:extent]", spec)
	}
	ops, err := datatype.Of(dt)
	if err != nil {
		return nil, err
	}
	lo, err := ops.Parse(parts[1])
	if err != nil {
		return nil, fmt.Errorf("dimension %q low bound: %w", parts[0], err)
	}
	hi, err := ops.Parse(parts[2])
	if err != nil {
		return nil, fmt.Errorf("dimension %q high bound: %w", parts[0], err)
	}

	d := tiledb.NewDimension(parts[0], dt)
	if err := d.SetDomain(append(lo, hi...)); err != nil {
		return nil, err
	}
	if len(parts) == 4 {
		ext, err := ops.Parse(parts[3])
		if err != nil {
			return nil, fmt.Errorf("dimension %q tile extent: %w", parts[0], err)
		}
		if err := d.SetTileExtent(ext); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func parseAttribute(spec string) (*tiledb.Attribute, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 4 {
		return nil, fmt.Errorf("attribute %q: want name:type[:cells|var][:filters]", spec)
	}
	dt, err := datatype.Parse(parts[1])
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", parts[0], err)
	}
	attr := tiledb.NewAttribute(parts[0], dt)
	if len(parts) > 2 && parts[2] != "" {
		if parts[2] == "var" {
			attr.CellValNum = tiledb.VarNum
		} else {
			var n uint32
			if _, err := fmt.Sscan(parts[2], &n); err != nil || n == 0 {
				return nil, fmt.Errorf("attribute %q: invalid cell value count %q", parts[0], parts[2])
			}
			attr.CellValNum = n
		}
	}
	if len(parts) == 4 {
		if attr.Filters, err = parseFilters(parts[3]); err != nil {
			return nil, fmt.Errorf("attribute %q: %w", parts[0], err)
		}
	}
	return attr, nil
}

// parseFilters reads a comma-separated list such as "shuffle,zstd=3".
func parseFilters(s string) ([]tiledb.FilterInfo, error) {
	var infos []tiledb.FilterInfo
	for _, f := range strings.Split(s, ",") {
		name, level, hasLevel := strings.Cut(f, "=")
		id, err := filter.Parse(name)
		if err != nil {
			return nil, err
		}
		info := tiledb.FilterInfo{ID: id}
		if hasLevel {
			if _, err := fmt.Sscan(level, &info.Level); err != nil {
				return nil, fmt.Errorf("filter %s: invalid level %q", name, level)
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}
