package ticket

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"technoplus/cmd/client/cmd/output"
	"technoplus/internal/app/client"
	"technoplus/internal/domain/record"
	"technoplus/internal/domain/ticket"
)

// TicketCmd - родительская команда для заявок на ремонт
var TicketCmd = &cobra.Command{
	Use:   "ticket",
	Short: "Заявки на ремонт",
}

var newTicket ticket.Ticket

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Принять устройство в ремонт",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		t, err := app.Tickets.Create(cmd.Context(), newTicket)
		if err != nil {
			return fmt.Errorf("ошибка создания заявки: %w", err)
		}
		return output.Print(cmd, t, func(w io.Writer) error {
			if record.IsTemp(t.ID) {
				fmt.Fprintln(w, output.Warning("Сервер недоступен, заявка сохранена локально"))
			} else {
				fmt.Fprintln(w, output.Success("Заявка создана"))
			}
			fmt.Fprintf(w, "Номер: %s\nID: %s\n", t.TicketNumber, t.ID)
			return nil
		})
	},
}

var statusNote string

var statusCmd = &cobra.Command{
	Use:   "status <id> <статус>",
	Short: "Сменить статус заявки",
	Long: `Меняет статус заявки и добавляет запись в историю.

Статусы: received, diagnosing, repairing, waiting_parts, ready, delivered, cancelled.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		t, err := app.Tickets.ChangeStatus(cmd.Context(), args[0], ticket.Status(args[1]), statusNote)
		if err != nil {
			return fmt.Errorf("ошибка смены статуса: %w", err)
		}
		return output.Print(cmd, t, func(w io.Writer) error {
			fmt.Fprintf(w, "%s: %s\n", t.TicketNumber, output.Success(string(t.Status)))
			return nil
		})
	},
}

var listCustomer string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Список заявок",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		var items []ticket.Ticket
		if listCustomer != "" {
			items, err = app.Tickets.ByCustomer(cmd.Context(), listCustomer)
		} else {
			items, err = app.Tickets.List(cmd.Context(), record.Query{ActiveOnly: true})
		}
		if err != nil {
			return fmt.Errorf("ошибка получения списка заявок: %w", err)
		}

		return output.Print(cmd, items, func(w io.Writer) error {
			rows := make([][]string, 0, len(items))
			for _, t := range items {
				rows = append(rows, []string{
					t.ID,
					t.TicketNumber,
					output.Truncate(t.Device, 24),
					output.Truncate(t.Problem, 30),
					string(t.Status),
				})
			}
			return output.Table(w, []string{"ID", "Номер", "Устройство", "Неисправность", "Статус"}, rows)
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "История статусов заявки",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		items, err := app.Tickets.History(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("ошибка получения истории: %w", err)
		}

		return output.Print(cmd, items, func(w io.Writer) error {
			rows := make([][]string, 0, len(items))
			for _, h := range items {
				rows = append(rows, []string{
					h.ChangedAt.Local().Format("2006-01-02 15:04"),
					string(h.FromStatus),
					string(h.ToStatus),
					h.Note,
				})
			}
			return output.Table(w, []string{"Когда", "Было", "Стало", "Комментарий"}, rows)
		})
	},
}

func init() {
	f := createCmd.Flags()
	f.StringVar(&newTicket.CustomerID, "customer", "", "ID клиента")
	f.StringVar(&newTicket.Device, "device", "", "устройство")
	f.StringVar(&newTicket.Problem, "problem", "", "описание неисправности")
	f.Float64Var(&newTicket.EstimatedCost, "estimate", 0, "предварительная стоимость")
	f.StringVar(&newTicket.Notes, "notes", "", "заметки")
	_ = createCmd.MarkFlagRequired("device")

	statusCmd.Flags().StringVar(&statusNote, "note", "", "комментарий к смене статуса")
	listCmd.Flags().StringVar(&listCustomer, "customer", "", "заявки клиента")

	TicketCmd.AddCommand(createCmd, statusCmd, listCmd, historyCmd)
}
