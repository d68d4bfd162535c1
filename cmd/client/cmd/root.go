package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"technoplus/cmd/client/cmd/category"
	"technoplus/cmd/client/cmd/customer"
	"technoplus/cmd/client/cmd/product"
	"technoplus/cmd/client/cmd/queue"
	"technoplus/cmd/client/cmd/sale"
	"technoplus/cmd/client/cmd/sync"
	"technoplus/cmd/client/cmd/ticket"
	"technoplus/internal/app/client"
	"technoplus/internal/app/client/config"
	"technoplus/internal/utils/logger"
)

var (
	cfgFile    string
	cfg        *config.Config
	log        *slog.Logger
	app        *client.App
	debug      bool
	jsonOutput bool
	serverAddr string
)

var rootCmd = &cobra.Command{
	Use:   "technoplus",
	Short: "Technoplus - касса и сервисный центр с работой без сети",
	Long: `Technoplus - клиент магазина и сервисного центра: товары, клиенты,
заявки на ремонт и продажи.

Все операции сначала отправляются на сервер. Если сервер недоступен,
изменения сохраняются локально и уходят на сервер при следующей синхронизации.`,
	PersistentPreRunE: setupApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if app != nil {
		if cerr := app.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "Ошибка закрытия хранилища: %v\n", cerr)
		}
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	// Загружаем конфигурацию
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// Переопределяем настройки из флагов командной строки
	if serverAddr != "" {
		cfg.ServerAddress = serverAddr
	}

	env := cfg.Env
	if debug {
		env = "local"
	}
	log = logger.New(env)

	app, err = client.New(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}

	cmd.SetContext(client.NewContext(cmd.Context(), app))
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "конфигурационный файл (yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "включить отладочный режим")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "вывод в формате JSON")
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "", "адрес сервера (host:port)")

	rootCmd.AddCommand(
		runCmd,
		sync.SyncCmd,
		queue.QueueCmd,
		product.ProductCmd,
		category.CategoryCmd,
		customer.CustomerCmd,
		ticket.TicketCmd,
		sale.SaleCmd,
	)
}
