// Package snapshot compares values against JSON golden files kept under testdata/.
//
// A missing golden file is written on first use and the comparison passes.
// Set PYPOKER_UPDATE_SNAPSHOTS=1 to rewrite every golden file touched by a run.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"pypoker-client/internal/util"
)

var (
	lock   sync.Mutex
	counts = make(map[string]int)
)

// Match compares obj, encoded as JSON, to the next golden file of the running test
func Match(t *testing.T, obj interface{}, msgAndArgs ...interface{}) bool {
	t.Helper()

	filename := nextFilename(t.Name())
	actual, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		t.Fatalf("could not encode snapshot %s: %v", filename, err)
		return false
	}

	expects, err := os.ReadFile(filename)
	if os.IsNotExist(err) || util.Getenv("PYPOKER_UPDATE_SNAPSHOTS", "") != "" {
		write(t, filename, actual)
		return true
	} else if err != nil {
		t.Fatalf("could not read snapshot %s: %v", filename, err)
		return false
	}

	if !assert.JSONEq(t, string(expects), string(actual), msgAndArgs...) {
		t.Logf("snapshot %s", filename)
		return false
	}

	return true
}

func nextFilename(testName string) string {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(testName)

	lock.Lock()
	call := counts[name]
	counts[name] = call + 1
	lock.Unlock()

	return filepath.Join("testdata", fmt.Sprintf("%s-%d.json", name, call))
}

func write(t *testing.T, filename string, data []byte) {
	t.Helper()

	logrus.WithField("filename", filename).Info("writing snapshot file")
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		t.Fatalf("could not create %s: %v", filepath.Dir(filename), err)
	}

	if err := os.WriteFile(filename, append(data, '\n'), 0644); err != nil {
		t.Fatalf("could not write snapshot %s: %v", filename, err)
	}
}
