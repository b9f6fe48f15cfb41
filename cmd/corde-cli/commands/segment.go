package commands

import (
	"bufio"
	"io"
	"os"
	"strconv"

	"corde-harvester/lib/concordance"
	"corde-harvester/lib/textutil"
	"corde-harvester/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(segmentCmd)
}

var segmentCmd = &cobra.Command{
	Use:   "segment [file]",
	Short: "Segments result lines from a file (or stdin) and prints the fields found in each.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var in io.Reader = os.Stdin
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				serviceutil.Fatal("failed to open input", err)
			}
			defer f.Close()
			in = f
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)

		header := table.Row{"Line"}
		for i := 0; i < concordance.Width; i++ {
			header = append(header, strconv.Itoa(i))
		}
		t.AppendHeader(header)

		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		number := 0
		for scanner.Scan() {
			number++
			tuple := concordance.Segment(textutil.Normalize(scanner.Text()))
			if tuple.Empty() {
				continue
			}
			row := table.Row{strconv.Itoa(number)}
			if !tuple.Segmented() {
				row[0] = strconv.Itoa(number) + " (skipped)"
			}
			for _, field := range tuple.Slice() {
				row = append(row, field)
			}
			t.AppendRow(row)
		}
		if err := scanner.Err(); err != nil {
			serviceutil.Fatal("failed to read input", err)
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
