package sync

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"technoplus/cmd/client/cmd/output"
	"technoplus/internal/app/client"
	domainsync "technoplus/internal/domain/sync"
)

var syncStatus bool

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Синхронизация с сервером",
	Long: `Синхронизация данных между клиентом и сервером.

Сначала с сервера загружаются актуальные данные, затем по порядку
отправляются действия, накопленные без сети.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		online := app.Connect(cmd.Context())

		if syncStatus {
			st, err := app.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("ошибка получения статуса: %w", err)
			}
			return output.Print(cmd, st, func(w io.Writer) error {
				return printStatus(w, st)
			})
		}

		if !online {
			return fmt.Errorf("сервер недоступен, изменения останутся в очереди")
		}

		res, err := app.Sync(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка синхронизации: %w", err)
		}
		return output.Print(cmd, res, func(w io.Writer) error {
			return printResult(w, res)
		})
	},
}

func printStatus(w io.Writer, st domainsync.Status) error {
	fmt.Fprintln(w, output.Header("=== Статус синхронизации ==="))

	state := output.Success(st.Label())
	if !st.IsOnline {
		state = output.Warning(st.Label())
	}
	fmt.Fprintf(w, "Состояние: %s\n", state)
	fmt.Fprintf(w, "Действий в очереди: %d\n", st.PendingActionCount)

	if st.LastSyncTime != nil {
		fmt.Fprintf(w, "Последняя синхронизация: %s\n", st.LastSyncTime.Local().Format("2006-01-02 15:04:05"))
	} else {
		fmt.Fprintln(w, "Синхронизаций еще не было")
	}

	return printErrors(w, st.SyncErrors)
}

func printResult(w io.Writer, res domainsync.Result) error {
	if res.DownloadFailed {
		fmt.Fprintln(w, output.Failure("Синхронизация прервана: не удалось загрузить данные"))
	} else {
		fmt.Fprintln(w, output.Success("Синхронизация завершена"))
	}

	fmt.Fprintf(w, "Время выполнения: %v\n", res.Duration().Round(time.Millisecond))
	fmt.Fprintf(w, "Загружено с сервера: %d записей\n", res.Downloaded)
	fmt.Fprintf(w, "Отправлено на сервер: %d действий\n", res.Uploaded)
	if res.Failed > 0 {
		fmt.Fprintf(w, "Осталось в очереди после ошибки: %d\n", res.Failed)
	}
	if res.Deferred > 0 {
		fmt.Fprintf(w, "Отложено: %d\n", res.Deferred)
	}
	if res.Dropped > 0 {
		fmt.Fprintln(w, output.Failure(fmt.Sprintf("Удалено после исчерпания попыток: %d", res.Dropped)))
	}

	return printErrors(w, res.Errors)
}

func printErrors(w io.Writer, errs []string) error {
	if len(errs) == 0 {
		return nil
	}

	fmt.Fprintf(w, "Ошибок: %d\n", len(errs))
	for i, e := range errs {
		// Показываем только первые 3 ошибки
		if i == 3 {
			fmt.Fprintf(w, "  ... и еще %d\n", len(errs)-3)
			break
		}
		fmt.Fprintf(w, "  • %s\n", e)
	}
	return nil
}

func init() {
	SyncCmd.Flags().BoolVar(&syncStatus, "status", false, "показать статус синхронизации")
}
