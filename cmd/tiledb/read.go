package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-tiledb/tiledb"
)

type readOptions struct {
	subarray string
	order    string
	attrs    []string
	batch    int
	format   string
}

func newReadCmd(a *app) *cobra.Command {
	o := &readOptions{}
	cmd := &cobra.Command{
		Use:   "read <array-uri>",
		Short: "Read cells, one line per cell",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.read(cmd, args[0], o)
		},
	}
	cmd.Flags().StringVar(&o.subarray, "subarray", "", "bounds lo,hi per dimension (default whole domain)")
	cmd.Flags().StringVar(&o.order, "layout", "row-major", "result order: row-major, col-major or global-order")
	cmd.Flags().StringSliceVar(&o.attrs, "attr", nil, "attributes to read (default all)")
	cmd.Flags().IntVar(&o.batch, "batch", 1024, "cells per buffer fill")
	cmd.Flags().StringVar(&o.format, "format", "text", "output format: text or json")
	return cmd
}

type readBuffer struct {
	attr *tiledb.Attribute
	buf  *tiledb.AttributeBuffer
}

func (b *readBuffer) reset() {
	*b.buf.ValuesSize = uint64(len(b.buf.Values))
	if b.attr.IsVar() {
		*b.buf.OffsetsSize = uint64(len(b.buf.Offsets)) * 8
	}
}

func (b *readBuffer) grow() {
	b.buf.Values = make([]byte, 2*len(b.buf.Values))
}

func (a *app) read(cmd *cobra.Command, uri string, o *readOptions) error {
	ctx := cmd.Context()
	if o.batch < 1 {
		return fmt.Errorf("batch must be at least 1")
	}
	arr, err := a.sm.OpenArray(ctx, uri)
	if err != nil {
		return err
	}
	schema := arr.Schema()
	if len(o.attrs) == 0 {
		o.attrs = schema.AttributeNames()
	}

	q, err := arr.NewQuery(tiledb.Read)
	if err != nil {
		return err
	}
	l, err := tiledb.ParseLayout(o.order)
	if err != nil {
		return err
	}
	if err := q.SetLayout(l); err != nil {
		return err
	}
	sub, err := parseSubarray(schema.Domain(), o.subarray)
	if err != nil {
		return err
	}
	if err := q.SetSubarray(sub); err != nil {
		return err
	}

	bufs := make([]*readBuffer, 0, len(o.attrs))
	for _, name := range o.attrs {
		attr, ok := schema.Attribute(name)
		if !ok {
			return fmt.Errorf("unknown attribute %q", name)
		}
		b := &readBuffer{attr: attr, buf: &tiledb.AttributeBuffer{ValuesSize: new(uint64)}}
		if attr.IsVar() {
			b.buf.Offsets = make([]uint64, o.batch)
			b.buf.OffsetsSize = new(uint64)
			b.buf.Values = make([]byte, o.batch*16)
			err = q.SetVarBuffer(name, b.buf.Offsets, b.buf.OffsetsSize, b.buf.Values, b.buf.ValuesSize)
		} else {
			b.buf.Values = make([]byte, uint64(o.batch)*attr.CellSize())
			err = q.SetBuffer(name, b.buf.Values, b.buf.ValuesSize)
		}
		if err != nil {
			return err
		}
		bufs = append(bufs, b)
	}

	if err := q.Init(ctx); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if o.format == "text" {
		fmt.Fprintln(out, strings.Join(o.attrs, "\t"))
	}
	for q.Status() != tiledb.Completed {
		for _, b := range bufs {
			b.reset()
		}
		if err := q.Process(ctx); err != nil {
			return err
		}
		if q.Status() == tiledb.Incomplete && empty(bufs) {
			// A single var-sized cell is larger than its buffer.
			for _, b := range bufs {
				if b.attr.IsVar() {
					b.grow()
					if err := q.SetVarBuffer(b.attr.Name, b.buf.Offsets, b.buf.OffsetsSize, b.buf.Values, b.buf.ValuesSize); err != nil {
						return err
					}
				}
			}
			a.logger.Debug("grew var buffers", "batch", o.batch)
			continue
		}
		if err := emit(out, o.format, q, bufs); err != nil {
			return err
		}
	}
	return nil
}

func empty(bufs []*readBuffer) bool {
	for _, b := range bufs {
		if *b.buf.ValuesSize > 0 {
			return false
		}
	}
	return true
}

func emit(w io.Writer, format string, q *tiledb.Query, bufs []*readBuffer) error {
	if format == "json" {
		data, err := q.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}

	cols := make([][]string, len(bufs))
	for i, b := range bufs {
		cells, err := formatCells(b.attr, b.buf)
		if err != nil {
			return err
		}
		cols[i] = cells
	}
	if len(cols) == 0 {
		return nil
	}
	for row := range cols[0] {
		fields := make([]string, len(cols))
		for i := range cols {
			if row < len(cols[i]) {
				fields[i] = cols[i][row]
			}
		}
		if _, err := fmt.Fprintln(w, strings.Join(fields, "\t")); err != nil {
			return err
		}
	}
	return nil
}
