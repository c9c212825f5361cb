package textutil

import (
	"reflect"
	"testing"
)

func TestMentions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"none", "no mentions here", nil},
		{"single", "ping @Jarvis please", []string{"Jarvis"}},
		{"multiple", "@Jarvis and @Shuri review this", []string{"Jarvis", "Shuri"}},
		{"dedup case insensitive", "@jarvis then @Jarvis again", []string{"jarvis"}},
		{"adjacent punctuation", "see @Wanda, and (@Vision).", []string{"Wanda", "Vision"}},
		{"email-like text", "send to ops@example.com", []string{"example"}},
		{"bare at", "meet @ noon", nil},
		{"underscore and digits", "cc @agent_7", []string{"agent_7"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mentions(tt.content)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Mentions(%q) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 200); got != "short" {
		t.Errorf("Truncate(short) = %q", got)
	}
	long := make([]byte, 0, 250)
	for i := 0; i < 250; i++ {
		long = append(long, 'x')
	}
	got := Truncate(string(long), 200)
	if len([]rune(got)) != 203 {
		t.Errorf("expected 200 runes plus ellipsis, got %d", len([]rune(got)))
	}
	if got[len(got)-3:] != "..." {
		t.Errorf("expected ellipsis suffix, got %q", got[len(got)-6:])
	}
	if Truncate("anything", 0) != "" {
		t.Error("expected empty result for zero limit")
	}
}
