package hg

// Sound plays the alert for an expired timer. name is the timer's Sound
// option and is never empty.
type Sound interface {
	Play(name string) error
}

// NopSound plays nothing.
type NopSound struct{}

func (NopSound) Play(string) error { return nil }
