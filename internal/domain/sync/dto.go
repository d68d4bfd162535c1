package sync

import "time"

// Result итог одного прохода синхронизации
type Result struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Downloaded int `json:"downloaded"`
	Uploaded   int `json:"uploaded"`
	// Failed - действия, оставшиеся в очереди после неудачной попытки.
	Failed int `json:"failed"`
	// Dropped - действия, удаленные после исчерпания попыток или как неразборчивые.
	Dropped int `json:"dropped"`
	// Deferred - действия, отложенные из-за неудачного создания связанной записи.
	Deferred int `json:"deferred"`
	// Skipped - действия неизвестного типа.
	Skipped int `json:"skipped"`

	Errors         []string `json:"errors"`
	DownloadFailed bool     `json:"download_failed"`
}

func (r Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
