package output

import (
	"bytes"
	"io"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	err := Table(&buf, []string{"ID", "Name"}, [][]string{{"1", "Cable"}, {"22", "Charger"}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "ID  Name")
	assert.Contains(t, out, "22  Charger")
	assert.Contains(t, out, "Всего записей: 2")
}

func TestTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, []string{"ID"}, nil))
	assert.Equal(t, "Записи не найдены\n", buf.String())
}

func TestPrint(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Bool("json", false, "")

	var buf bytes.Buffer
	cmd.SetOut(&buf)

	v := map[string]int{"count": 2}
	human := func(w io.Writer) error {
		_, err := w.Write([]byte("count: 2 items\n"))
		return err
	}

	require.NoError(t, Print(cmd, v, human))
	assert.Equal(t, "count: 2 items\n", buf.String())

	buf.Reset()
	require.NoError(t, cmd.Flags().Set("json", "true"))
	require.NoError(t, Print(cmd, v, human))
	assert.JSONEq(t, `{"count":2}`, buf.String())
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, YAML(&buf, map[string]any{"type": "create-product", "retry_count": 1}))
	assert.Equal(t, "retry_count: 1\ntype: create-product\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "Заряд...", Truncate("Зарядное устройство", 8))
}
