package timing

import (
	"hash/fnv"
	"strconv"
)

// Option field names passed to change observers.
const (
	FieldTitle            = "Title"
	FieldLoopTimer        = "LoopTimer"
	FieldShowTimeElapsed  = "ShowTimeElapsed"
	FieldSound            = "Sound"
	FieldLoopSound        = "LoopSound"
	FieldCloseWhenExpired = "CloseWhenExpired"
)

// Options is the frozen configuration of a Timer. It is a comparable value:
// two Options are equal when every field is equal, and an Options can be
// used as a map key or shared between timers.
type Options struct {
	title            string
	loopTimer        bool
	showTimeElapsed  bool
	sound            string
	loopSound        bool
	closeWhenExpired bool
}

// Title is a user label shown next to the timer.
func (o Options) Title() string { return o.title }

// LoopTimer restarts a duration timer when it expires.
func (o Options) LoopTimer() bool { return o.loopTimer }

// ShowTimeElapsed displays elapsed time instead of time left.
func (o Options) ShowTimeElapsed() bool { return o.showTimeElapsed }

// Sound names the sound played on expiry. Empty means silent.
func (o Options) Sound() string { return o.sound }

// LoopSound keeps playing the sound while the timer stays expired.
func (o Options) LoopSound() bool { return o.loopSound }

// CloseWhenExpired ends a watch session once the timer expires.
func (o Options) CloseWhenExpired() bool { return o.closeWhenExpired }

// Hash returns a stable hash of all fields.
func (o Options) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(o.title))
	h.Write([]byte{0})
	h.Write([]byte(o.sound))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatBool(o.loopTimer)))
	h.Write([]byte(strconv.FormatBool(o.showTimeElapsed)))
	h.Write([]byte(strconv.FormatBool(o.loopSound)))
	h.Write([]byte(strconv.FormatBool(o.closeWhenExpired)))
	return h.Sum64()
}

// Builder returns an unfrozen builder initialised from o.
func (o Options) Builder() *OptionsBuilder {
	return &OptionsBuilder{opts: o}
}

// OptionsBuilder assembles Options. Setters notify OnChange observers when
// a value actually changes. After Freeze every setter fails with ErrFrozen.
type OptionsBuilder struct {
	opts      Options
	frozen    bool
	observers []func(field string)
}

// NewOptionsBuilder returns a builder holding the zero Options.
func NewOptionsBuilder() *OptionsBuilder {
	return &OptionsBuilder{}
}

// OnChange registers fn to be called with the field name of every change.
func (b *OptionsBuilder) OnChange(fn func(field string)) {
	b.observers = append(b.observers, fn)
}

func (b *OptionsBuilder) SetTitle(v string) error {
	return setField(b, &b.opts.title, v, FieldTitle)
}

func (b *OptionsBuilder) SetLoopTimer(v bool) error {
	return setField(b, &b.opts.loopTimer, v, FieldLoopTimer)
}

func (b *OptionsBuilder) SetShowTimeElapsed(v bool) error {
	return setField(b, &b.opts.showTimeElapsed, v, FieldShowTimeElapsed)
}

func (b *OptionsBuilder) SetSound(v string) error {
	return setField(b, &b.opts.sound, v, FieldSound)
}

func (b *OptionsBuilder) SetLoopSound(v bool) error {
	return setField(b, &b.opts.loopSound, v, FieldLoopSound)
}

func (b *OptionsBuilder) SetCloseWhenExpired(v bool) error {
	return setField(b, &b.opts.closeWhenExpired, v, FieldCloseWhenExpired)
}

// Peek returns the options as currently set without freezing.
func (b *OptionsBuilder) Peek() Options { return b.opts }

// Frozen reports whether Freeze has been called.
func (b *OptionsBuilder) Frozen() bool { return b.frozen }

// Freeze stops further modification and returns the final Options.
// Calling it again returns the same value.
func (b *OptionsBuilder) Freeze() Options {
	b.frozen = true
	return b.opts
}

// Hash returns the hash of the frozen options. A builder that can still
// change has no stable hash, so this fails with ErrNotFrozen until Freeze.
func (b *OptionsBuilder) Hash() (uint64, error) {
	if !b.frozen {
		return 0, ErrNotFrozen
	}
	return b.opts.Hash(), nil
}

func setField[T comparable](b *OptionsBuilder, field *T, v T, name string) error {
	if b.frozen {
		return ErrFrozen
	}
	if *field == v {
		return nil
	}
	*field = v
	for _, fn := range b.observers {
		fn(name)
	}
	return nil
}
