package log

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetup(t *testing.T) {
	defer Setup(Options{Level: "info", Output: os.Stderr})

	buf := new(bytes.Buffer)
	Setup(Options{Level: "debug", JSON: true, Output: buf})

	if got := Logger().GetLevel(); got != logrus.DebugLevel {
		t.Errorf("level: got %s; want %s", got, logrus.DebugLevel)
	}

	WithField("key", "paused").Debug("queued")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unexpected output %q: %s", buf.String(), err)
	}
	if entry["key"] != "paused" || entry["msg"] != "queued" {
		t.Errorf("unexpected entry: %v", entry)
	}

	Setup(Options{Level: "bogus", Output: buf})
	if got := Logger().GetLevel(); got != logrus.InfoLevel {
		t.Errorf("fallback level: got %s; want %s", got, logrus.InfoLevel)
	}
}
