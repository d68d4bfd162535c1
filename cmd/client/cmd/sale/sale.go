package sale

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"technoplus/cmd/client/cmd/output"
	"technoplus/internal/app/client"
	"technoplus/internal/domain/record"
	"technoplus/internal/domain/transaction"
)

// SaleCmd - родительская команда для продаж
var SaleCmd = &cobra.Command{
	Use:   "sale",
	Short: "Продажи",
}

var (
	items    []string
	customer string
	payment  string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Оформить продажу",
	Long: `Оформляет продажу и списывает остатки товаров.

Позиции задаются флагом --item в формате <id товара>:<количество>[:<цена>].
Если цена не указана, берется текущая цена товара.`,
	Example: `  technoplus sale create --item 5f1c...:2 --item 9ab0...:1:350`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		parsed := make([]transaction.Item, 0, len(items))
		for _, raw := range items {
			it, hasPrice, err := parseItem(raw)
			if err != nil {
				return err
			}
			if err := fillFromProduct(cmd.Context(), app, &it, hasPrice); err != nil {
				return err
			}
			parsed = append(parsed, it)
		}

		t, err := app.Transactions.Create(cmd.Context(), transaction.Transaction{
			CustomerID:    customer,
			PaymentMethod: payment,
			Items:         parsed,
		})
		if err != nil {
			return fmt.Errorf("ошибка оформления продажи: %w", err)
		}

		return output.Print(cmd, t, func(w io.Writer) error {
			if record.IsTemp(t.ID) {
				fmt.Fprintln(w, output.Warning("Сервер недоступен, продажа сохранена локально"))
			} else {
				fmt.Fprintln(w, output.Success("Продажа оформлена"))
			}
			fmt.Fprintf(w, "Чек: %s\nСумма: %s\n", t.Number, output.Money(t.Total))
			return nil
		})
	},
}

var listCustomer string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Список продаж",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		var sales []transaction.Transaction
		if listCustomer != "" {
			sales, err = app.Transactions.ByCustomer(cmd.Context(), listCustomer)
		} else {
			sales, err = app.Transactions.List(cmd.Context(), record.Query{})
		}
		if err != nil {
			return fmt.Errorf("ошибка получения списка продаж: %w", err)
		}

		return output.Print(cmd, sales, func(w io.Writer) error {
			rows := make([][]string, 0, len(sales))
			for _, t := range sales {
				status := t.Status
				if status == transaction.StatusVoided {
					status = output.Failure(status)
				}
				rows = append(rows, []string{
					t.ID,
					t.Number,
					t.CreatedAt.Local().Format("2006-01-02 15:04"),
					strconv.Itoa(len(t.Items)),
					output.Money(t.Total),
					status,
				})
			}
			return output.Table(w, []string{"ID", "Чек", "Дата", "Позиций", "Сумма", "Статус"}, rows)
		})
	},
}

var voidCmd = &cobra.Command{
	Use:   "void <id>",
	Short: "Отменить продажу",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		t, err := app.Transactions.Void(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("ошибка отмены продажи: %w", err)
		}
		return output.Print(cmd, t, func(w io.Writer) error {
			fmt.Fprintf(w, "Продажа %s отменена\n", t.Number)
			return nil
		})
	},
}

// parseItem разбирает позицию вида id:количество[:цена].
func parseItem(raw string) (transaction.Item, bool, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
		return transaction.Item{}, false, fmt.Errorf("некорректная позиция %q, ожидается id:количество[:цена]", raw)
	}

	qty, err := strconv.Atoi(parts[1])
	if err != nil || qty <= 0 {
		return transaction.Item{}, false, fmt.Errorf("некорректное количество в позиции %q", raw)
	}

	it := transaction.Item{ProductID: parts[0], Quantity: qty}
	if len(parts) == 2 {
		return it, false, nil
	}

	price, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || price < 0 {
		return transaction.Item{}, false, fmt.Errorf("некорректная цена в позиции %q", raw)
	}
	it.UnitPrice = price
	return it, true, nil
}

// fillFromProduct подставляет название и, если не задана, цену товара.
func fillFromProduct(ctx context.Context, app *client.App, it *transaction.Item, hasPrice bool) error {
	p, err := app.Products.Get(ctx, it.ProductID)
	if err != nil {
		if hasPrice {
			return nil
		}
		return fmt.Errorf("товар %s: %w", it.ProductID, err)
	}

	it.Name = p.Name
	if !hasPrice {
		it.UnitPrice = p.Price
	}
	return nil
}

func init() {
	createCmd.Flags().StringArrayVar(&items, "item", nil, "позиция id:количество[:цена], можно несколько")
	createCmd.Flags().StringVar(&customer, "customer", "", "ID клиента")
	createCmd.Flags().StringVar(&payment, "payment", "cash", "способ оплаты")
	_ = createCmd.MarkFlagRequired("item")

	listCmd.Flags().StringVar(&listCustomer, "customer", "", "продажи клиента")

	SaleCmd.AddCommand(createCmd, listCmd, voidCmd)
}
