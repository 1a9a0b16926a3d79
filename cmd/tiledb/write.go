package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-tiledb/tiledb"
)

func newWriteCmd(a *app) *cobra.Command {
	var (
		subarray string
		order    string
		values   []string
	)
	cmd := &cobra.Command{
		Use:   "write <array-uri>",
		Short: "Write cells as a new fragment",
		Example: `  tiledb write arrays/dense --subarray 1,2,1,2 \
    --values a=1,2,3,4 --values s=ab,c,def,g`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			arr, err := a.sm.OpenArray(ctx, args[0])
			if err != nil {
				return err
			}
			q, err := arr.NewQuery(tiledb.Write)
			if err != nil {
				return err
			}
			l, err := tiledb.ParseLayout(order)
			if err != nil {
				return err
			}
			if err := q.SetLayout(l); err != nil {
				return err
			}
			sub, err := parseSubarray(arr.Schema().Domain(), subarray)
			if err != nil {
				return err
			}
			if err := q.SetSubarray(sub); err != nil {
				return err
			}

			for _, kv := range values {
				name, cells, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("values %q: want attribute=cells", kv)
				}
				attr, ok := arr.Schema().Attribute(name)
				if !ok {
					return fmt.Errorf("unknown attribute %q", name)
				}
				offsets, data, err := encodeCells(attr, cells)
				if err != nil {
					return err
				}
				size := uint64(len(data))
				if attr.IsVar() {
					osize := uint64(len(offsets)) * 8
					err = q.SetVarBuffer(name, offsets, &osize, data, &size)
				} else {
					err = q.SetBuffer(name, data, &size)
				}
				if err != nil {
					return err
				}
			}

			if err := q.Init(ctx); err != nil {
				return err
			}
			if err := q.Process(ctx); err != nil {
				return err
			}
			if err := q.Finalize(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", q.Status())
			return nil
		},
	}
	cmd.Flags().StringVar(&subarray, "subarray", "", "bounds lo,hi per dimension (default whole domain)")
	cmd.Flags().StringVar(&order, "layout", "row-major", "cell order of the values: row-major, col-major or global-order")
	cmd.Flags().StringArrayVar(&values, "values", nil, "cells of one attribute as name=v,v,...")
	cmd.MarkFlagRequired("values")
	return cmd
}
