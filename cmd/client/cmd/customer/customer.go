package customer

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"technoplus/cmd/client/cmd/output"
	"technoplus/internal/app/client"
	"technoplus/internal/domain/customer"
	"technoplus/internal/domain/record"
)

// CustomerCmd - родительская команда для клиентов
var CustomerCmd = &cobra.Command{
	Use:   "customer",
	Short: "Клиенты",
}

var newCustomer customer.Customer

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Добавить клиента",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		c, err := app.Customers.Create(cmd.Context(), newCustomer)
		if err != nil {
			return fmt.Errorf("ошибка создания клиента: %w", err)
		}
		return output.Print(cmd, c, func(w io.Writer) error {
			if record.IsTemp(c.ID) {
				fmt.Fprintln(w, output.Warning("Сервер недоступен, клиент сохранен локально"))
			} else {
				fmt.Fprintln(w, output.Success("Клиент создан"))
			}
			fmt.Fprintf(w, "ID: %s\n", c.ID)
			return nil
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Список клиентов",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		items, err := app.Customers.List(cmd.Context(), record.Query{ActiveOnly: true})
		if err != nil {
			return fmt.Errorf("ошибка получения списка клиентов: %w", err)
		}
		return output.Print(cmd, items, func(w io.Writer) error {
			return printCustomers(w, items)
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <текст>",
	Short: "Поиск по имени, телефону и email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		items, err := app.Customers.Search(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("ошибка поиска: %w", err)
		}
		return output.Print(cmd, items, func(w io.Writer) error {
			return printCustomers(w, items)
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Удалить клиента",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		if err := app.Customers.Delete(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("ошибка удаления клиента: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), output.Success("Клиент удален"))
		return nil
	},
}

func printCustomers(w io.Writer, items []customer.Customer) error {
	rows := make([][]string, 0, len(items))
	for _, c := range items {
		rows = append(rows, []string{c.ID, output.Truncate(c.Name, 30), c.Phone, c.Email})
	}
	return output.Table(w, []string{"ID", "Имя", "Телефон", "Email"}, rows)
}

func init() {
	f := createCmd.Flags()
	f.StringVar(&newCustomer.Name, "name", "", "имя")
	f.StringVar(&newCustomer.Phone, "phone", "", "телефон")
	f.StringVar(&newCustomer.Email, "email", "", "email")
	f.StringVar(&newCustomer.Address, "address", "", "адрес")
	f.StringVar(&newCustomer.Notes, "notes", "", "заметки")
	_ = createCmd.MarkFlagRequired("name")

	CustomerCmd.AddCommand(createCmd, listCmd, searchCmd, deleteCmd)
}
