package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"hg-go/internal/archive"
	"hg-go/internal/config"
	"hg-go/internal/database"
	"hg-go/internal/encryption"
	"hg-go/internal/hg"
	"hg-go/internal/model"
	"hg-go/internal/sound"
	"hg-go/internal/timing"
)

// HGApp is the application layer between the CLI and HGService.
// It constructs all dependencies from config, resolves timer ID prefixes
// and manages the DB and log lifecycle on Close.
type HGApp struct {
	cfg       *config.Config
	db        *database.SQLiteDatabase
	encryptor hg.Encryptor
	service   *hg.HGService
	op        *Operation
	logger    *slog.Logger
	logFile   *os.File
	clock     timing.Clock
}

// NewHGApp creates a fully wired HGApp from the given config.
// operation identifies the CLI command being run (e.g. "Start", "Watch").
// The bell rings on stdout. The caller must call Close when done.
func NewHGApp(cfg *config.Config, operation string, verbose bool) (*HGApp, error) {
	return newHGApp(cfg, operation, verbose, timing.RealClock{}, hg.UUIDGenerator{}, os.Stdout)
}

func newHGApp(cfg *config.Config, operation string, verbose bool, clock timing.Clock, idgen hg.IDGenerator, out io.Writer) (*HGApp, error) {
	op := NewOperation(operation, clock.Now())

	logger, logFile, err := newLogger(cfg.LogDir, op.ID, verbose)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	if err := db.CheckMigrations(); err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	snd, err := sound.NewSoundFromConfig(cfg.Sound, out)
	if err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating sound: %w", err)
	}

	svc := hg.NewHGService(db, snd, enc, &slogAdapter{l: logger}, clock, idgen)
	logger.Debug("operation started", "operation", operation)

	return &HGApp{
		cfg:       cfg,
		db:        db,
		encryptor: enc,
		service:   svc,
		op:        op,
		logger:    logger,
		logFile:   logFile,
		clock:     clock,
	}, nil
}

// DefaultOptions returns an unfrozen builder holding the configured default
// timer options, for the CLI to override.
func (a *HGApp) DefaultOptions() *timing.OptionsBuilder {
	return DefaultOptions(a.cfg.Defaults)
}

// DefaultOptions converts configured defaults into an unfrozen builder.
func DefaultOptions(d config.DefaultsConfig) *timing.OptionsBuilder {
	return timing.OptionsFromRecord(timing.OptionsRecord{
		LoopTimer:        d.LoopTimer,
		ShowTimeElapsed:  d.ShowTimeElapsed,
		Sound:            d.Sound,
		LoopSound:        d.LoopSound,
		CloseWhenExpired: d.CloseWhenExpired,
	}).Builder()
}

// Start parses input and starts a new timer with opts.
func (a *HGApp) Start(input string, opts timing.Options) (*hg.Entry, error) {
	e, err := a.service.StartTimer(input, opts)
	return e, a.op.Record(err)
}

// Get returns the timer whose ID starts with idPrefix.
func (a *HGApp) Get(idPrefix string) (*hg.Entry, error) {
	id, err := a.resolve(idPrefix)
	if err != nil {
		return nil, err
	}
	e, err := a.service.Get(id)
	return e, a.op.Record(err)
}

// List returns every timer, oldest first.
func (a *HGApp) List() ([]*hg.Entry, error) {
	entries, err := a.service.List()
	return entries, a.op.Record(err)
}

func (a *HGApp) Pause(idPrefix string) (*hg.Entry, error) {
	return a.modify(idPrefix, a.service.Pause)
}

func (a *HGApp) Resume(idPrefix string) (*hg.Entry, error) {
	return a.modify(idPrefix, a.service.Resume)
}

func (a *HGApp) Stop(idPrefix string) (*hg.Entry, error) {
	return a.modify(idPrefix, a.service.Stop)
}

func (a *HGApp) Restart(idPrefix string) (*hg.Entry, error) {
	return a.modify(idPrefix, a.service.Restart)
}

// Remove deletes a timer and returns its full ID.
func (a *HGApp) Remove(idPrefix string) (string, error) {
	id, err := a.resolve(idPrefix)
	if err != nil {
		return "", err
	}
	return id, a.op.Record(a.service.Remove(id))
}

// History returns up to limit transitions of a timer, newest first.
func (a *HGApp) History(idPrefix string, limit int) ([]*model.TimerEvent, error) {
	id, err := a.resolve(idPrefix)
	if err != nil {
		return nil, err
	}
	events, err := a.service.History(id, limit)
	return events, a.op.Record(err)
}

// Watch ticks the given timers, or all timers, at the configured interval.
func (a *HGApp) Watch(ctx context.Context, idPrefixes []string, render func([]*hg.Entry)) error {
	interval, err := a.cfg.Tick()
	if err != nil {
		return a.op.Record(err)
	}

	ids := make([]string, 0, len(idPrefixes))
	for _, p := range idPrefixes {
		id, err := a.resolve(p)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	return a.op.Record(a.service.Watch(ctx, interval, ids, render))
}

// Export writes all timers to path. An empty format is inferred from the
// file extension.
func (a *HGApp) Export(path, format string, encrypt bool) (int, error) {
	f, err := resolveFormat(path, format)
	if err != nil {
		return 0, a.op.Record(err)
	}

	out, err := os.Create(path)
	if err != nil {
		return 0, a.op.Record(fmt.Errorf("creating export file: %w", err))
	}

	n, err := a.service.Export(out, f, encrypt)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("closing export file: %w", closeErr)
	}
	if err != nil {
		os.Remove(path)
	}
	return n, a.op.Record(err)
}

// Import reads timers from path. passphrase is only called when the file is
// encrypted.
func (a *HGApp) Import(path, format string, passphrase func() (string, error)) (int, error) {
	f, err := resolveFormat(path, format)
	if err != nil {
		return 0, a.op.Record(err)
	}

	in, err := os.Open(path)
	if err != nil {
		return 0, a.op.Record(fmt.Errorf("opening import file: %w", err))
	}
	defer in.Close()

	br := bufio.NewReader(in)
	var pass string
	if head, _ := br.Peek(64); encryption.IsEncrypted(head) {
		pass, err = passphrase()
		if err != nil {
			return 0, a.op.Record(fmt.Errorf("reading passphrase: %w", err))
		}
	}

	n, err := a.service.Import(br, f, pass)
	return n, a.op.Record(err)
}

// Now returns the current time of the app's clock.
func (a *HGApp) Now() time.Time {
	return a.clock.Now()
}

// Close logs the outcome of the operation and closes all resources.
func (a *HGApp) Close() error {
	a.logger.Debug("operation finished",
		"operation", a.op.Name,
		"status", a.op.Status,
		"duration", a.clock.Now().Sub(a.op.StartedAt).String())

	var firstErr error
	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

func (a *HGApp) modify(idPrefix string, fn func(id string) (*hg.Entry, error)) (*hg.Entry, error) {
	id, err := a.resolve(idPrefix)
	if err != nil {
		return nil, err
	}
	e, err := fn(id)
	return e, a.op.Record(err)
}

func (a *HGApp) resolve(idPrefix string) (string, error) {
	id, err := a.service.Resolve(idPrefix)
	return id, a.op.Record(err)
}

func resolveFormat(path, format string) (archive.Format, error) {
	if format == "" {
		return archive.FormatFromPath(path), nil
	}
	return archive.ParseFormat(format)
}

// SetupEncryption generates the key pair configured in cfg, protecting the
// private key with passphrase.
func SetupEncryption(cfg config.EncryptionConfig, passphrase string) error {
	enc, err := encryption.NewEncryptorFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	if err := enc.Setup(passphrase); err != nil {
		return fmt.Errorf("setting up encryption: %w", err)
	}
	return nil
}
