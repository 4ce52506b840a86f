package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/RyanBlaney/tremor-analyzer/pkg/source/common"
	"github.com/RyanBlaney/tremor-analyzer/pkg/source/synthetic"
)

// MockSourceDetector is a simple mock implementation of SourceDetector for testing.
type MockSourceDetector struct {
	mockDetectType func(ctx context.Context, locator string) (common.SourceType, error)
}

func (m *MockSourceDetector) DetectType(ctx context.Context, locator string) (common.SourceType, error) {
	return m.mockDetectType(ctx, locator)
}

// TestNewFactory checks that the built-in sources are registered.
func TestNewFactory(t *testing.T) {
	factory := NewFactory(DefaultOptions())

	want := []common.SourceType{common.SourceTypeReplay, common.SourceTypeSynthetic}
	if got := factory.SupportedTypes(); !slices.Equal(got, want) {
		t.Errorf("SupportedTypes(): want %v, got %v", want, got)
	}
}

// TestCreate checks that the factory returns the right source per type.
func TestCreate(t *testing.T) {
	factory := NewFactory(DefaultOptions())

	type test struct {
		sourceType  common.SourceType
		locator     string
		expectedErr error
	}

	tests := []test{
		{common.SourceTypeSynthetic, "synthetic://?hz=8", nil},
		{common.SourceTypeReplay, "walk.csv", nil},
		{common.SourceTypeUnsupported, "ftp://example.com", errors.New("unsupported source type: unsupported")},
	}

	for _, tt := range tests {
		src, err := factory.Create(tt.sourceType, tt.locator)
		if (err != nil && (tt.expectedErr == nil || err.Error() != tt.expectedErr.Error())) ||
			(err == nil && tt.expectedErr != nil) {
			t.Errorf("Create(%s): want %v, got %v", tt.sourceType, tt.expectedErr, err)
			continue
		}
		if err == nil && src.Type() != tt.sourceType {
			t.Errorf("Create(%s): got source of type %s", tt.sourceType, src.Type())
		}
	}
}

func TestCreateInvalidSyntheticLocator(t *testing.T) {
	factory := NewFactory(DefaultOptions())

	_, err := factory.Create(common.SourceTypeSynthetic, "synthetic://?hz=abc")
	var se *common.SourceError
	if !errors.As(err, &se) || se.Code != common.ErrCodeInvalidFormat {
		t.Errorf("Create(synthetic invalid): want %s, got %v", common.ErrCodeInvalidFormat, err)
	}
}

// TestDetectAndCreate checks detection from locators.
func TestDetectAndCreate(t *testing.T) {
	factory := NewFactory(DefaultOptions())

	existing := filepath.Join(t.TempDir(), "session.log")
	if err := os.WriteFile(existing, []byte("1,2,3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	type test struct {
		locator    string
		sourceType common.SourceType
		wantErr    bool
	}

	tests := []test{
		{"synthetic://", common.SourceTypeSynthetic, false},
		{"SYNTHETIC://?hz=5&noise=0", common.SourceTypeSynthetic, false},
		{"-", common.SourceTypeReplay, false},
		{"recordings/walk.csv", common.SourceTypeReplay, false},
		{"recordings/walk.jsonl", common.SourceTypeReplay, false},
		{"recordings/not-yet-written.json", common.SourceTypeReplay, false},
		{existing, common.SourceTypeReplay, false},
		{"https://example.com/walk.csv", common.SourceTypeUnsupported, true},
		{"no-such-thing", common.SourceTypeUnsupported, true},
	}

	for _, tt := range tests {
		src, err := factory.DetectAndCreate(context.Background(), tt.locator)
		if tt.wantErr {
			if err == nil {
				t.Errorf("DetectAndCreate(%s): want error, got %s source", tt.locator, src.Type())
				continue
			}
			var se *common.SourceError
			if !errors.As(err, &se) || se.Code != common.ErrCodeUnsupported {
				t.Errorf("DetectAndCreate(%s): want %s, got %v", tt.locator, common.ErrCodeUnsupported, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("DetectAndCreate(%s): want %s, got %v", tt.locator, tt.sourceType, err)
			continue
		}
		if src.Type() != tt.sourceType {
			t.Errorf("DetectAndCreate(%s): want %s, got %s", tt.locator, tt.sourceType, src.Type())
		}
	}
}

// TestRegisterConstructor checks that custom constructors replace built-ins.
func TestRegisterConstructor(t *testing.T) {
	factory := NewFactory(DefaultOptions())

	called := false
	factory.RegisterConstructor(common.SourceTypeSynthetic, func(locator string) (common.Source, error) {
		called = true
		return synthetic.NewSource(locator, synthetic.DefaultConfig(), synthetic.NoNoise), nil
	})

	if _, err := factory.Create(common.SourceTypeSynthetic, "synthetic://"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !called {
		t.Error("registered constructor was not used")
	}
}

func TestDetectorOverride(t *testing.T) {
	factory := NewFactory(DefaultOptions())
	factory.SetDetector(&MockSourceDetector{
		mockDetectType: func(ctx context.Context, locator string) (common.SourceType, error) {
			return common.SourceTypeSynthetic, nil
		},
	})

	src, err := factory.DetectAndCreate(context.Background(), "synthetic://")
	if err != nil || src.Type() != common.SourceTypeSynthetic {
		t.Errorf("DetectAndCreate with mock detector: got %v, %v", src, err)
	}

	factory.SetDetector(&MockSourceDetector{
		mockDetectType: func(ctx context.Context, locator string) (common.SourceType, error) {
			return common.SourceTypeUnsupported, errors.New("no sensor")
		},
	})
	if _, err := factory.DetectAndCreate(context.Background(), "anything"); err == nil {
		t.Error("DetectAndCreate: want detector error to propagate")
	}
}
