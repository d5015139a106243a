package backend

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/batch2d/gpucore"
)

// stubDevice embeds a nil gpucore.Device; only Name and Close are called.
type stubDevice struct {
	gpucore.Device
	name string
}

func (s *stubDevice) Name() string { return s.name }
func (s *stubDevice) Close()       {}

func registerStub(t *testing.T, name string, err error) {
	t.Helper()
	Register(name, func(Config) (Device, error) {
		if err != nil {
			return nil, err
		}
		return &stubDevice{name: name}, nil
	})
	t.Cleanup(func() { Unregister(name) })
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		cfg     Config
		wantErr bool
	}{
		{Config{Width: 1, Height: 1}, false},
		{Config{Width: 0, Height: 10}, true},
		{Config{Width: 10, Height: -1}, true},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) error = %v, wantErr %v", tt.cfg, err, tt.wantErr)
		}
	}
}

func TestOpen(t *testing.T) {
	registerStub(t, "stub-open", nil)

	d, err := Open("stub-open", Config{Width: 10, Height: 10})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if d.Name() != "stub-open" {
		t.Errorf("Name() = %q", d.Name())
	}

	if !IsRegistered("stub-open") {
		t.Error("IsRegistered() = false")
	}
	if !slices.Contains(Available(), "stub-open") {
		t.Errorf("Available() = %v", Available())
	}
}

func TestOpenUnknown(t *testing.T) {
	_, err := Open("no-such-backend", Config{Width: 10, Height: 10})
	if !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Open() error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestOpenInvalidConfig(t *testing.T) {
	registerStub(t, "stub-invalid", nil)
	_, err := Open("stub-invalid", Config{})
	if !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("Open() error = %v, want ErrInvalidDimensions", err)
	}
}

func TestDefaultFallsThrough(t *testing.T) {
	failure := errors.New("no adapter")
	registerStub(t, BackendNative, failure)
	registerStub(t, BackendRecording, nil)

	d, err := Default(Config{Width: 10, Height: 10})
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if d.Name() != BackendRecording {
		t.Errorf("Default() = %q, want %q", d.Name(), BackendRecording)
	}
}

func TestDefaultAllFail(t *testing.T) {
	failure := errors.New("no adapter")
	registerStub(t, BackendNative, failure)
	registerStub(t, BackendRecording, failure)

	// Other tests may leave extra backends registered; only check when
	// the two priority backends are the only ones.
	if len(Available()) != 2 {
		t.Skip("extra backends registered")
	}
	if _, err := Default(Config{Width: 10, Height: 10}); !errors.Is(err, failure) {
		t.Errorf("Default() error = %v, want %v", err, failure)
	}
}
