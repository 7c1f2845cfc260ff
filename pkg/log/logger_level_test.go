package log

import "testing"

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  LogLevel
	}{
		{name: "debug lower", input: "debug", want: LevelDebug},
		{name: "info upper", input: "INFO", want: LevelInfo},
		{name: "warn mixed", input: "WaRn", want: LevelWarn},
		{name: "error", input: "error", want: LevelError},
		{name: "fatal", input: "fatal", want: LevelFatal},
		{name: "trim spaces", input: "  debug  ", want: LevelDebug},
		{name: "unknown fallback", input: "verbose", want: LevelInfo},
		{name: "empty fallback", input: "", want: LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Fatalf("ParseLevel(%q)=%v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestAddSinkReceivesMessages(t *testing.T) {
	logger := NewLogger(LevelInfo)

	var gotLevel LogLevel
	var gotMessage string
	logger.AddSink(func(level LogLevel, message string) {
		gotLevel = level
		gotMessage = message
	})

	logger.Info("hello %s", "world")

	if gotLevel != LevelInfo {
		t.Fatalf("sink level = %v, want %v", gotLevel, LevelInfo)
	}
	if gotMessage != "hello world" {
		t.Fatalf("sink message = %q, want %q", gotMessage, "hello world")
	}
}

func TestSinkRespectsLevelFilter(t *testing.T) {
	logger := NewLogger(LevelWarn)

	calls := 0
	logger.AddSink(func(LogLevel, string) { calls++ })

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")

	if calls != 1 {
		t.Fatalf("sink calls = %d, want 1", calls)
	}
}
