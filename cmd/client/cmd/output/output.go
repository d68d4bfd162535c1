// Package output - общий вывод команд: таблицы для человека, JSON и YAML для скриптов.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	Success = color.New(color.FgGreen).SprintFunc()
	Warning = color.New(color.FgYellow).SprintFunc()
	Failure = color.New(color.FgRed).SprintFunc()
	Header  = color.New(color.Bold).SprintFunc()
)

// IsJSON сообщает, запрошен ли вывод в JSON глобальным флагом --json.
func IsJSON(cmd *cobra.Command) bool {
	v, err := cmd.Flags().GetBool("json")
	return err == nil && v
}

func JSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func YAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

// Print выводит v в JSON, если указан --json, иначе вызывает human.
func Print(cmd *cobra.Command, v any, human func(w io.Writer) error) error {
	if IsJSON(cmd) {
		return JSON(cmd.OutOrStdout(), v)
	}
	return human(cmd.OutOrStdout())
}

// Table печатает строки с выравниванием по колонкам.
func Table(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "Записи не найдены")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nВсего записей: %d\n", len(rows))
	return err
}

// Truncate обрезает строку до length символов.
func Truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return string(r[:length-3]) + "..."
}

func Money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
