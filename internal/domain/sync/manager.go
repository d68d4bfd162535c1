package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/slog"

	"technoplus/internal/domain/action"
	"technoplus/internal/domain/record"
	"technoplus/internal/utils/broadcast"
)

// Manager сводит локальную очередь действий с удаленным сервером.
//
// Один проход синхронизации (sweep) скачивает актуальное состояние и
// воспроизводит очередь в порядке FIFO. Одновременно выполняется не более
// одного прохода, лишние триггеры отбрасываются.
type Manager struct {
	store   Store
	backend record.Backend
	monitor Connectivity
	cfg     Config
	log     *slog.Logger
	now     func() time.Time

	syncing atomic.Bool
	status  *broadcast.Hub[Status]
	wg      gosync.WaitGroup
}

func New(store Store, backend record.Backend, monitor Connectivity, cfg Config, log *slog.Logger) (*Manager, error) {
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("%w: max retries must be >= 0, got %d", ErrInvalidConfig, cfg.MaxRetries)
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidConfig, cfg.Interval)
	}

	m := &Manager{
		store:   store,
		backend: backend,
		monitor: monitor,
		cfg:     cfg,
		log:     log.With(slog.String("component", "sync_manager")),
		now:     time.Now,
		status:  broadcast.New[Status](8),
	}

	monitor.OnOnline(m.trigger("online"))
	monitor.OnResume(m.trigger("resume"))

	return m, nil
}

// Run запускает периодическую синхронизацию, пока сеть доступна.
// Отмена ctx останавливает таймер, но не прерывает уже начатый проход.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !m.monitor.IsOnline() {
				continue
			}
			if _, err := m.Sweep(ctx); err != nil {
				m.log.Debug("periodic sweep skipped", "error", err)
			}
		}
	}
}

// Wait дожидается завершения проходов, запущенных сменой состояния сети.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Sweep выполняет один проход синхронизации. Единственная возвращаемая ошибка:
// ErrSweepInProgress; ошибки самого прохода попадают в Result и syncErrors.
func (m *Manager) Sweep(ctx context.Context) (Result, error) {
	if !m.syncing.CompareAndSwap(false, true) {
		return Result{}, ErrSweepInProgress
	}
	ctx = context.WithoutCancel(ctx)
	defer func() {
		m.syncing.Store(false)
		m.publish(ctx)
	}()

	res := Result{StartedAt: m.now(), Errors: []string{}}
	m.log.Info("sync started")
	m.publish(ctx)

	downloaded, err := m.download(ctx)
	if err != nil {
		res.DownloadFailed = true
		res.Errors = append(res.Errors, fmt.Sprintf("download: %v", err))
		m.log.Warn("download failed", "error", err)
	} else {
		res.Downloaded = downloaded
		m.publish(ctx)
		m.upload(ctx, &res)
	}

	m.persist(ctx, &res)
	res.FinishedAt = m.now()

	m.log.Info("sync finished",
		"downloaded", res.Downloaded,
		"uploaded", res.Uploaded,
		"failed", res.Failed,
		"dropped", res.Dropped,
		"deferred", res.Deferred,
		"duration", res.Duration(),
	)
	return res, nil
}

func (m *Manager) persist(ctx context.Context, res *Result) {
	if err := m.store.SetSetting(ctx, SettingSyncErrors, res.Errors); err != nil {
		m.log.Error("failed to persist sync errors", "error", err)
	}
	if res.DownloadFailed {
		return
	}
	if err := m.store.SetSetting(ctx, SettingLastSyncTime, m.now().UTC().Format(time.RFC3339Nano)); err != nil {
		m.log.Error("failed to persist last sync time", "error", err)
	}
}

// Status пересчитывает состояние синхронизации.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	st := Status{
		IsOnline:   m.monitor.IsOnline(),
		IsSyncing:  m.syncing.Load(),
		SyncErrors: []string{},
	}

	n, err := m.store.CountPending(ctx)
	if err != nil {
		return Status{}, err
	}
	st.PendingActionCount = n

	var last string
	ok, err := m.store.GetSetting(ctx, SettingLastSyncTime, &last)
	if err != nil {
		return Status{}, err
	}
	if ok {
		if t, err := time.Parse(time.RFC3339Nano, last); err == nil {
			st.LastSyncTime = &t
		}
	}

	var errs []string
	if _, err := m.store.GetSetting(ctx, SettingSyncErrors, &errs); err != nil {
		return Status{}, err
	}
	if errs != nil {
		st.SyncErrors = errs
	}

	return st, nil
}

// SubscribeStatus подписывает на пересчитанный статус после каждого изменения очереди и этапа прохода.
func (m *Manager) SubscribeStatus() *broadcast.Subscription[Status] {
	return m.status.Subscribe()
}

// SubscribeOnline подписывает на смену состояния сети. Уведомление приходит раньше запуска прохода.
func (m *Manager) SubscribeOnline() *broadcast.Subscription[bool] {
	return m.monitor.Subscribe()
}

// Stage атомарно сохраняет оптимистичные записи и ставит действие в очередь.
func (m *Manager) Stage(ctx context.Context, a action.Action, writes ...record.Write) error {
	return m.StageWithID(ctx, action.NewID(), a, writes...)
}

// StageWithID ставит действие в очередь под заданным идентификатором. Он же служит
// ключом идемпотентности при воспроизведении, поэтому вызывающий может заранее
// использовать его в прямом запросе к серверу.
func (m *Manager) StageWithID(ctx context.Context, id string, a action.Action, writes ...record.Write) error {
	p, err := action.NewWithID(id, a)
	if err != nil {
		return err
	}
	if err := m.store.Stage(ctx, writes, p); err != nil {
		return err
	}

	m.log.Debug("action staged", "type", p.Type, "id", p.ID)
	m.publish(ctx)
	return nil
}

func (m *Manager) Enqueue(ctx context.Context, a action.Action) error {
	return m.Stage(ctx, a)
}

// Absorb сохраняет записи, полученные с сервера, пропуская те,
// на которые еще ссылаются действия в очереди. Возвращает число сохраненных.
func (m *Manager) Absorb(ctx context.Context, collection string, recs []record.Record) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	protected, err := m.protected(ctx)
	if err != nil {
		return 0, err
	}
	return m.absorb(ctx, collection, recs, protected)
}

// Reconcile сохраняет ответ сервера через Absorb и возвращает его с учетом очереди:
// записи с ожидающими действиями берутся из хранилища, а созданные офлайн
// добавляются в конец, если подходят под запрос.
func (m *Manager) Reconcile(ctx context.Context, collection string, q record.Query, recs []record.Record) ([]record.Record, error) {
	protected, err := m.protected(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := m.absorb(ctx, collection, recs, protected); err != nil {
		return nil, err
	}

	out := make([]record.Record, 0, len(recs))
	seen := make(map[string]bool, len(recs))
	for _, r := range recs {
		seen[r.ID] = true
		if _, ok := protected[record.Ref{Collection: collection, ID: r.ID}]; !ok {
			out = append(out, r)
			continue
		}

		local, ok, err := m.store.Get(ctx, collection, r.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			out = append(out, r)
			continue
		}
		if q.Match(local.Data) {
			out = append(out, local)
		}
	}

	var offline bool
	for ref := range protected {
		if ref.Collection == collection && record.IsTemp(ref.ID) {
			offline = true
			break
		}
	}
	if !offline {
		return out, nil
	}

	local, err := m.store.Query(ctx, collection, q)
	if err != nil {
		return nil, err
	}
	for _, r := range local {
		if !record.IsTemp(r.ID) || seen[r.ID] {
			continue
		}
		if _, ok := protected[record.Ref{Collection: collection, ID: r.ID}]; ok {
			out = append(out, r)
		}
	}

	return out, nil
}

func (m *Manager) absorb(ctx context.Context, collection string, recs []record.Record, protected map[record.Ref]struct{}) (int, error) {
	keep := make([]record.Record, 0, len(recs))
	for _, r := range recs {
		if _, ok := protected[record.Ref{Collection: collection, ID: r.ID}]; ok {
			m.log.Debug("pending record kept", "collection", collection, "id", r.ID)
			continue
		}
		keep = append(keep, r)
	}

	if len(keep) == 0 {
		return 0, nil
	}
	if err := m.store.PutMany(ctx, collection, keep); err != nil {
		return 0, err
	}
	return len(keep), nil
}

// HasPending сообщает, изменена ли запись действием, которое еще в очереди.
func (m *Manager) HasPending(ctx context.Context, ref record.Ref) (bool, error) {
	protected, err := m.protected(ctx)
	if err != nil {
		return false, err
	}
	_, ok := protected[ref]
	return ok, nil
}

// Pending возвращает очередь в порядке воспроизведения.
func (m *Manager) Pending(ctx context.Context) ([]action.Pending, error) {
	return m.store.DequeueAll(ctx)
}

// RetryAll обнуляет счетчики попыток и запускает проход.
func (m *Manager) RetryAll(ctx context.Context) (Result, error) {
	if err := m.store.ResetRetries(ctx); err != nil {
		return Result{}, err
	}
	m.publish(ctx)
	return m.Sweep(ctx)
}

// Reset удаляет все локальные данные: записи, очередь и настройки.
func (m *Manager) Reset(ctx context.Context) error {
	if err := m.store.ClearAll(ctx); err != nil {
		return err
	}
	m.publish(ctx)
	return nil
}

func (m *Manager) protected(ctx context.Context) (map[record.Ref]struct{}, error) {
	queue, err := m.store.DequeueAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[record.Ref]struct{})
	for _, p := range queue {
		a, err := p.Decode()
		if err != nil {
			continue
		}
		for _, ref := range a.Targets() {
			out[ref] = struct{}{}
		}
	}
	return out, nil
}

func (m *Manager) trigger(reason string) func() {
	return func() {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()

			_, err := m.Sweep(context.Background())
			if errors.Is(err, ErrSweepInProgress) {
				m.log.Debug("sweep already running", "trigger", reason)
			}
		}()
	}
}

func (m *Manager) publish(ctx context.Context) {
	st, err := m.Status(ctx)
	if err != nil {
		m.log.Error("failed to compute sync status", "error", err)
		return
	}
	m.status.Publish(st)
}
