package category

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"technoplus/cmd/client/cmd/output"
	"technoplus/internal/app/client"
	"technoplus/internal/domain/category"
	"technoplus/internal/domain/record"
)

// CategoryCmd - родительская команда для категорий товаров
var CategoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Категории товаров",
}

var (
	name   string
	parent string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Добавить категорию",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		c, err := app.Categories.Create(cmd.Context(), category.Category{Name: name, ParentID: parent})
		if err != nil {
			return fmt.Errorf("ошибка создания категории: %w", err)
		}
		return output.Print(cmd, c, func(w io.Writer) error {
			if record.IsTemp(c.ID) {
				fmt.Fprintln(w, output.Warning("Сервер недоступен, категория сохранена локально"))
			}
			fmt.Fprintf(w, "ID: %s\n", c.ID)
			return nil
		})
	},
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Дерево категорий",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		roots, err := app.Categories.Tree(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка получения категорий: %w", err)
		}
		return output.Print(cmd, roots, func(w io.Writer) error {
			if len(roots) == 0 {
				fmt.Fprintln(w, "Категорий нет")
				return nil
			}
			printTree(w, roots, 0)
			return nil
		})
	},
}

func printTree(w io.Writer, nodes []category.Category, depth int) {
	for _, c := range nodes {
		fmt.Fprintf(w, "%s%s (%s)\n", strings.Repeat("  ", depth), c.Name, c.ID)
		printTree(w, c.Children, depth+1)
	}
}

func init() {
	createCmd.Flags().StringVar(&name, "name", "", "название")
	createCmd.Flags().StringVar(&parent, "parent", "", "ID родительской категории")
	_ = createCmd.MarkFlagRequired("name")

	CategoryCmd.AddCommand(createCmd, treeCmd)
}
