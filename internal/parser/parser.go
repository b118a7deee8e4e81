// Package parser turns SQL-ish command text into structured commands. The
// engine itself never parses text; anything that can build a
// command.Command directly (the websocket surface does) bypasses this
// package entirely.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/reldb/reldb/internal/command"
	"github.com/reldb/reldb/internal/query"
	"github.com/reldb/reldb/internal/table"
)

var (
	create_table_re = regexp.MustCompile(`(?i)^CREATE TABLE (\w+) \((.*)\)$`)
	insert_re       = regexp.MustCompile(`(?i)^INSERT INTO (\w+) VALUES \((.*)\)$`)
	join_re         = regexp.MustCompile(`(?i)^SELECT \* FROM (\w+) (?:INNER )?JOIN (\w+) ON (\w+)\.(\w+) = (\w+)\.(\w+)$`)
	select_re       = regexp.MustCompile(`(?i)^SELECT (.*?) FROM (\w+)(?: WHERE (.*))?$`)
	update_re       = regexp.MustCompile(`(?i)^UPDATE (\w+) SET (.*?)(?: WHERE (.*))?$`)
	delete_re       = regexp.MustCompile(`(?i)^DELETE FROM (\w+)(?: WHERE (.*))?$`)
	drop_table_re   = regexp.MustCompile(`(?i)^DROP TABLE (\w+)$`)
	create_index_re = regexp.MustCompile(`(?i)^CREATE INDEX ON (\w+) \((\w+)\)$`)
	drop_index_re   = regexp.MustCompile(`(?i)^DROP INDEX ON (\w+) \((\w+)\)$`)
)

// Parse parses one SQL command string into a structured command.
func Parse(sql string) (*command.Command, error) {
	sql = strings.Join(strings.Fields(strings.TrimSpace(sql)), " ")
	if sql == "" {
		return nil, fmt.Errorf("Empty SQL command")
	}

	upper := strings.ToUpper(sql)
	switch {
	case strings.HasPrefix(upper, "CREATE TABLE"):
		return parseCreateTable(sql)
	case strings.HasPrefix(upper, "INSERT INTO"):
		return parseInsert(sql)
	case strings.HasPrefix(upper, "SELECT"):
		if strings.Contains(upper, " JOIN ") {
			return parseJoin(sql)
		}
		return parseSelect(sql)
	case strings.HasPrefix(upper, "UPDATE"):
		return parseUpdate(sql)
	case strings.HasPrefix(upper, "DELETE FROM"):
		return parseDelete(sql)
	case strings.HasPrefix(upper, "DROP TABLE"):
		return parseDropTable(sql)
	case strings.HasPrefix(upper, "CREATE INDEX"):
		return parseCreateIndex(sql)
	case strings.HasPrefix(upper, "DROP INDEX"):
		return parseDropIndex(sql)
	}
	return nil, fmt.Errorf("Invalid SQL command")
}

func parseCreateTable(sql string) (*command.Command, error) {
	match := create_table_re.FindStringSubmatch(sql)
	if match == nil {
		return nil, fmt.Errorf("Invalid CREATE TABLE syntax")
	}

	cmd := &command.Command{
		Type:              command.CreateTable,
		TableName:         match[1],
		UniqueConstraints: []string{},
	}

	for _, col_def := range strings.Split(match[2], ",") {
		col_def = strings.TrimSpace(col_def)
		parts := strings.Fields(col_def)
		if len(parts) < 2 {
			return nil, fmt.Errorf("Invalid column definition: %s", col_def)
		}

		col_name := parts[0]
		cmd.Columns = append(cmd.Columns, col_name)
		cmd.ColumnTypes = append(cmd.ColumnTypes, table.ColumnType(strings.ToUpper(parts[1])))

		def_upper := strings.ToUpper(col_def)
		if strings.Contains(def_upper, "PRIMARY") && strings.Contains(def_upper, "KEY") {
			cmd.PrimaryKey = col_name
		}
		if strings.Contains(def_upper, "UNIQUE") {
			cmd.UniqueConstraints = append(cmd.UniqueConstraints, col_name)
		}
	}

	return cmd, nil
}

func parseInsert(sql string) (*command.Command, error) {
	match := insert_re.FindStringSubmatch(sql)
	if match == nil {
		return nil, fmt.Errorf("Invalid INSERT syntax")
	}

	return &command.Command{
		Type:      command.Insert,
		TableName: match[1],
		Values:    parseValues(match[2]),
	}, nil
}

func parseSelect(sql string) (*command.Command, error) {
	match := select_re.FindStringSubmatch(sql)
	if match == nil {
		return nil, fmt.Errorf("Invalid SELECT syntax")
	}

	cmd := &command.Command{Type: command.Select, TableName: match[2]}

	columns_str := strings.TrimSpace(match[1])
	if columns_str != "*" {
		for _, col := range strings.Split(columns_str, ",") {
			cmd.Projection = append(cmd.Projection, strings.TrimSpace(col))
		}
	}

	if match[3] != "" {
		where, err := parseWhere(match[3])
		if err != nil {
			return nil, err
		}
		cmd.Where = where
	}

	return cmd, nil
}

func parseUpdate(sql string) (*command.Command, error) {
	match := update_re.FindStringSubmatch(sql)
	if match == nil {
		return nil, fmt.Errorf("Invalid UPDATE syntax")
	}

	cmd := &command.Command{
		Type:      command.Update,
		TableName: match[1],
		SetValues: map[string]table.Value{},
	}

	for _, part := range splitOutsideQuotes(match[2], ",") {
		part = strings.TrimSpace(part)
		col, val, found := strings.Cut(part, "=")
		if !found {
			return nil, fmt.Errorf("Invalid SET clause: %s", part)
		}
		cmd.SetValues[strings.TrimSpace(col)] = parseValue(strings.TrimSpace(val))
	}

	if match[3] != "" {
		where, err := parseWhere(match[3])
		if err != nil {
			return nil, err
		}
		cmd.Where = where
	}

	return cmd, nil
}

func parseDelete(sql string) (*command.Command, error) {
	match := delete_re.FindStringSubmatch(sql)
	if match == nil {
		return nil, fmt.Errorf("Invalid DELETE syntax")
	}

	cmd := &command.Command{Type: command.Delete, TableName: match[1]}
	if match[2] != "" {
		where, err := parseWhere(match[2])
		if err != nil {
			return nil, err
		}
		cmd.Where = where
	}
	return cmd, nil
}

func parseJoin(sql string) (*command.Command, error) {
	match := join_re.FindStringSubmatch(sql)
	if match == nil {
		return nil, fmt.Errorf("Invalid JOIN syntax")
	}

	return &command.Command{
		Type:        command.Join,
		TableName:   match[1],
		JoinTable:   match[2],
		LeftColumn:  match[4],
		RightColumn: match[6],
	}, nil
}

func parseDropTable(sql string) (*command.Command, error) {
	match := drop_table_re.FindStringSubmatch(sql)
	if match == nil {
		return nil, fmt.Errorf("Invalid DROP TABLE syntax")
	}
	return &command.Command{Type: command.DropTable, TableName: match[1]}, nil
}

func parseCreateIndex(sql string) (*command.Command, error) {
	match := create_index_re.FindStringSubmatch(sql)
	if match == nil {
		return nil, fmt.Errorf("Invalid CREATE INDEX syntax")
	}
	return &command.Command{Type: command.CreateIndex, TableName: match[1], IndexColumn: match[2]}, nil
}

func parseDropIndex(sql string) (*command.Command, error) {
	match := drop_index_re.FindStringSubmatch(sql)
	if match == nil {
		return nil, fmt.Errorf("Invalid DROP INDEX syntax")
	}
	return &command.Command{Type: command.DropIndex, TableName: match[1], IndexColumn: match[2]}, nil
}

// parseWhere parses "col = value [AND col = value ...]" into a conjunctive
// filter.
func parseWhere(where_clause string) (query.Filter, error) {
	where := query.Filter{}
	for _, cond := range splitConditions(where_clause) {
		col, val, found := strings.Cut(cond, "=")
		if !found {
			return nil, fmt.Errorf("Invalid WHERE clause: %s", cond)
		}
		where[strings.TrimSpace(col)] = parseValue(strings.TrimSpace(val))
	}
	return where, nil
}

// splitConditions splits a WHERE clause on AND keywords that sit outside
// quoted text. The keyword check is positional: uppercasing the whole
// clause would shift byte offsets when a quoted value holds a rune whose
// upper form is shorter (e.g. U+017F).
func splitConditions(clause string) []string {
	conditions := []string{}
	current := ""
	in_quotes := false

	for i := 0; i < len(clause); i++ {
		if clause[i] == '\'' {
			in_quotes = !in_quotes
		}
		if !in_quotes && i+5 <= len(clause) && strings.EqualFold(clause[i:i+5], " AND ") {
			conditions = append(conditions, strings.TrimSpace(current))
			current = ""
			i += 4 // skip " AND", the loop increment eats the trailing space
			continue
		}
		current += string(clause[i])
	}
	if strings.TrimSpace(current) != "" {
		conditions = append(conditions, strings.TrimSpace(current))
	}
	return conditions
}

// parseValues splits a comma separated value list, respecting quoted text.
func parseValues(values_str string) []table.Value {
	values := []table.Value{}
	for _, part := range splitOutsideQuotes(values_str, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		values = append(values, parseValue(strings.TrimSpace(part)))
	}
	return values
}

func splitOutsideQuotes(s, sep string) []string {
	parts := []string{}
	current := ""
	in_quotes := false

	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			in_quotes = !in_quotes
		}
		if !in_quotes && strings.HasPrefix(s[i:], sep) {
			parts = append(parts, current)
			current = ""
			i += len(sep) - 1
			continue
		}
		current += string(s[i])
	}
	parts = append(parts, current)
	return parts
}

// parseValue types a single literal: true/false, 'quoted text', int, float;
// anything else is taken as bare text.
func parseValue(val_str string) table.Value {
	switch strings.ToLower(val_str) {
	case "true":
		return table.Bool(true)
	case "false":
		return table.Bool(false)
	}

	if len(val_str) >= 2 && strings.HasPrefix(val_str, "'") && strings.HasSuffix(val_str, "'") {
		return table.Text(val_str[1 : len(val_str)-1])
	}

	if i, err := strconv.Atoi(val_str); err == nil {
		return table.Int(i)
	}
	if f, err := strconv.ParseFloat(val_str, 64); err == nil {
		return table.Float(f)
	}

	return table.Text(val_str)
}
