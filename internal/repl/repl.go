// Package repl is the interactive prompt: read a line, parse it, execute it,
// print what came back.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/reldb/reldb/internal/parser"
	"github.com/reldb/reldb/internal/session"
)

const prompt = "reldb> "

func Run(db *session.RelDB, in io.Reader, out io.Writer) {
	fmt.Fprintln(out, "RelDB interactive shell. Type .exit to quit, .tables to list tables.")
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case ".exit", ".quit":
			return
		case ".tables":
			for _, name := range db.ListTables() {
				fmt.Fprintln(out, name)
			}
			continue
		}

		cmd, err := parser.Parse(line)
		if err != nil {
			fmt.Fprintln(out, "Error:", err)
			continue
		}

		res, err := db.Execute(cmd)
		if err != nil {
			fmt.Fprintln(out, "Error:", err)
			continue
		}

		printResult(out, res)
	}
}

func printResult(out io.Writer, res *session.Result) {
	if res.Columns != nil {
		fmt.Fprintln(out, strings.Join(res.Columns, " | "))
		for _, row := range res.Rows {
			cells := make([]string, len(row))
			for i, cell := range row {
				cells[i] = fmt.Sprintf("%v", cell)
			}
			fmt.Fprintln(out, strings.Join(cells, " | "))
		}
		fmt.Fprintf(out, "(%d row(s))\n", res.Count)
		return
	}
	if res.Message != "" {
		fmt.Fprintln(out, res.Message)
	}
}
