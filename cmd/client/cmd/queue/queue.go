package queue

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"technoplus/cmd/client/cmd/output"
	"technoplus/internal/app/client"
	"technoplus/internal/domain/action"
)

// QueueCmd - родительская команда для работы с очередью отложенных действий
var QueueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Очередь отложенных действий",
	Long:  `Просмотр, повтор и очистка действий, выполненных без связи с сервером.`,
}

var listFormat string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Показать очередь",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		queue, err := app.Queue(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка чтения очереди: %w", err)
		}

		if listFormat == "yaml" {
			return output.YAML(cmd.OutOrStdout(), toYAML(queue))
		}
		return output.Print(cmd, queue, func(w io.Writer) error {
			return printQueue(w, queue)
		})
	},
}

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Обнулить счетчики попыток и синхронизировать",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		if !app.Connect(cmd.Context()) {
			return fmt.Errorf("сервер недоступен")
		}

		res, err := app.RetryAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка синхронизации: %w", err)
		}

		return output.Print(cmd, res, func(w io.Writer) error {
			fmt.Fprintf(w, "Отправлено: %d, ошибок: %d, удалено: %d\n", res.Uploaded, res.Failed, res.Dropped)
			return nil
		})
	},
}

var assumeYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Удалить все локальные данные и очередь",
	Long: `Удаляет локальные копии всех коллекций и очередь действий.
Действия, не отправленные на сервер, будут потеряны.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		if !assumeYes {
			ok, err := confirm(cmd, "Все неотправленные изменения будут потеряны. Продолжить? [y/N]: ")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Отменено")
				return nil
			}
		}

		if err := app.Reset(cmd.Context()); err != nil {
			return fmt.Errorf("ошибка очистки: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), output.Success("Локальные данные удалены"))
		return nil
	},
}

// confirm спрашивает подтверждение. Без терминала считается отказом.
func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, fmt.Errorf("нет терминала для подтверждения, используйте --yes")
	}

	fmt.Fprint(cmd.OutOrStdout(), prompt)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes" || answer == "д" || answer == "да", nil
}

func printQueue(w io.Writer, queue []action.Pending) error {
	rows := make([][]string, 0, len(queue))
	for _, p := range queue {
		attempts := fmt.Sprint(p.RetryCount)
		if p.RetryCount > 0 {
			attempts = output.Warning(attempts)
		}
		rows = append(rows, []string{
			p.ID,
			string(p.Type),
			p.EnqueuedAt.Local().Format("2006-01-02 15:04:05"),
			attempts,
		})
	}
	return output.Table(w, []string{"ID", "Действие", "Создано", "Попыток"}, rows)
}

type entry struct {
	ID         string         `yaml:"id"`
	Type       string         `yaml:"type"`
	EnqueuedAt time.Time      `yaml:"enqueued_at"`
	RetryCount int            `yaml:"retry_count"`
	Payload    map[string]any `yaml:"payload,omitempty"`
}

// toYAML разворачивает JSON-данные действий, чтобы YAML был читаемым.
func toYAML(queue []action.Pending) []entry {
	out := make([]entry, 0, len(queue))
	for _, p := range queue {
		e := entry{ID: p.ID, Type: string(p.Type), EnqueuedAt: p.EnqueuedAt, RetryCount: p.RetryCount}
		_ = json.Unmarshal(p.Payload, &e.Payload)
		out = append(out, e)
	}
	return out
}

func init() {
	listCmd.Flags().StringVarP(&listFormat, "output", "o", "table", "формат вывода (table, yaml)")
	resetCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "не спрашивать подтверждение")

	QueueCmd.AddCommand(listCmd, retryCmd, resetCmd)
}
