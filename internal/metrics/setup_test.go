package metrics

import (
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// TestMain registers the collectors once so parallel tests never observe
// the uninitialized no-op state.
func TestMain(m *testing.M) {
	if err := Init(prometheus.NewRegistry()); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}
