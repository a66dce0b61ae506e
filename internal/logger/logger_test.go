package logger

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestWithComponent(t *testing.T) {
	entry := WithComponent("updater")
	if entry == nil {
		t.Fatal("expected non-nil entry")
	}

	if val, ok := entry.Data["component"]; !ok {
		t.Error("expected component field to be set")
	} else if val != "updater" {
		t.Errorf("expected component 'updater', got '%v'", val)
	}
}

func TestLoggerInit(t *testing.T) {
	if Logger == nil {
		t.Fatal("expected Logger to be initialized")
	}
	if Logger.Out != os.Stdout {
		t.Error("expected Logger output to be os.Stdout")
	}
}

func TestSetLevel(t *testing.T) {
	origLevel := Logger.GetLevel()
	defer Logger.SetLevel(origLevel)

	tests := []struct {
		name          string
		value         string
		expectedLevel logrus.Level
		wantErr       bool
	}{
		{"debug level", "debug", logrus.DebugLevel, false},
		{"warn level", "warn", logrus.WarnLevel, false},
		{"DEBUG uppercase", "DEBUG", logrus.DebugLevel, false},
		{"padded", "  error ", logrus.ErrorLevel, false},
		{"invalid level keeps current", "invalid", logrus.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Logger.SetLevel(logrus.InfoLevel)

			got, err := SetLevel(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if got != tt.expectedLevel {
				t.Errorf("expected returned level %v, got %v", tt.expectedLevel, got)
			}
			if Logger.GetLevel() != tt.expectedLevel {
				t.Errorf("expected logger level %v, got %v", tt.expectedLevel, Logger.GetLevel())
			}
		})
	}
}

func TestWithComponentMultiple(t *testing.T) {
	entry1 := WithComponent("notifier")
	entry2 := WithComponent("renderer")

	if entry1.Data["component"] == entry2.Data["component"] {
		t.Error("expected different component values for different entries")
	}
}
