package product

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"technoplus/cmd/client/cmd/output"
	"technoplus/internal/app/client"
	"technoplus/internal/domain/product"
	"technoplus/internal/domain/record"
)

// ProductCmd - родительская команда для товаров
var ProductCmd = &cobra.Command{
	Use:   "product",
	Short: "Товары и остатки",
}

var newProduct product.Product

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Добавить товар",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		p, err := app.Products.Create(cmd.Context(), newProduct)
		if err != nil {
			return fmt.Errorf("ошибка создания товара: %w", err)
		}
		return output.Print(cmd, p, func(w io.Writer) error {
			return printCreated(w, p)
		})
	},
}

var (
	listLow      bool
	listCategory string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Список товаров",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		var items []product.Product
		switch {
		case listLow:
			items, err = app.Products.LowStock(cmd.Context())
		case listCategory != "":
			items, err = app.Products.ByCategory(cmd.Context(), listCategory)
		default:
			items, err = app.Products.List(cmd.Context(), record.Query{ActiveOnly: true})
		}
		if err != nil {
			return fmt.Errorf("ошибка получения списка товаров: %w", err)
		}

		return output.Print(cmd, items, func(w io.Writer) error {
			return printProducts(w, items)
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <текст>",
	Short: "Поиск по названию, коду и штрихкоду",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		items, err := app.Products.Search(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("ошибка поиска: %w", err)
		}
		return output.Print(cmd, items, func(w io.Writer) error {
			return printProducts(w, items)
		})
	},
}

var barcodeCmd = &cobra.Command{
	Use:   "barcode <штрихкод>",
	Short: "Найти товар по штрихкоду",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		p, err := app.Products.GetByBarcode(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return output.Print(cmd, p, func(w io.Writer) error {
			return printProducts(w, []product.Product{p})
		})
	},
}

var stockCmd = &cobra.Command{
	Use:   "stock <id> <количество>",
	Short: "Списать остаток товара",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("некорректное количество %q", args[1])
		}

		p, err := app.Products.DecrementStock(cmd.Context(), args[0], qty)
		if err != nil {
			return fmt.Errorf("ошибка списания: %w", err)
		}
		return output.Print(cmd, p, func(w io.Writer) error {
			fmt.Fprintf(w, "%s: остаток %d\n", p.Name, p.StockQuantity)
			if p.IsLowStock() {
				fmt.Fprintln(w, output.Warning("Остаток ниже минимального"))
			}
			return nil
		})
	},
}

func printCreated(w io.Writer, p product.Product) error {
	if record.IsTemp(p.ID) {
		fmt.Fprintln(w, output.Warning("Сервер недоступен, товар сохранен локально"))
	} else {
		fmt.Fprintln(w, output.Success("Товар создан"))
	}
	fmt.Fprintf(w, "ID: %s\n", p.ID)
	return nil
}

func printProducts(w io.Writer, items []product.Product) error {
	rows := make([][]string, 0, len(items))
	for _, p := range items {
		stock := strconv.Itoa(p.StockQuantity)
		if p.IsLowStock() {
			stock = output.Warning(stock)
		}
		rows = append(rows, []string{
			p.ID,
			output.Truncate(p.Name, 30),
			p.Barcode,
			output.Money(p.Price),
			stock,
		})
	}
	return output.Table(w, []string{"ID", "Название", "Штрихкод", "Цена", "Остаток"}, rows)
}

func init() {
	f := createCmd.Flags()
	f.StringVar(&newProduct.Name, "name", "", "название")
	f.StringVar(&newProduct.Code, "code", "", "артикул")
	f.StringVar(&newProduct.Barcode, "barcode", "", "штрихкод")
	f.StringVar(&newProduct.Description, "description", "", "описание")
	f.StringVar(&newProduct.CategoryID, "category", "", "ID категории")
	f.StringVar(&newProduct.SupplierID, "supplier", "", "ID поставщика")
	f.Float64Var(&newProduct.Price, "price", 0, "цена продажи")
	f.Float64Var(&newProduct.Cost, "cost", 0, "закупочная цена")
	f.IntVar(&newProduct.StockQuantity, "stock", 0, "начальный остаток")
	f.IntVar(&newProduct.MinStock, "min-stock", 0, "минимальный остаток")
	_ = createCmd.MarkFlagRequired("name")

	listCmd.Flags().BoolVar(&listLow, "low", false, "только товары с низким остатком")
	listCmd.Flags().StringVar(&listCategory, "category", "", "фильтр по категории")

	ProductCmd.AddCommand(createCmd, listCmd, searchCmd, barcodeCmd, stockCmd)
}
