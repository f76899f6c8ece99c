package metrics

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/crillab/gophereuf/euf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ euf.Statistics = (*Recorder)(nil)

func TestWriteTextfile(t *testing.T) {
	r := New("test")
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st := euf.StatsMap{"euf merge": 3, "datatype clashes": 1}
			for k, v := range st {
				r.Update(k, v)
			}
			r.Observe("INCONSISTENT", 2*time.Millisecond)
		}()
	}
	wg.Wait()
	r.Observe("CONSISTENT", time.Second)

	path := filepath.Join(t.TempDir(), "euf.prom")
	require.NoError(t, r.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `test_statistic_total{name="euf merge"} 12`)
	assert.Contains(t, out, `test_statistic_total{name="datatype clashes"} 4`)
	assert.Contains(t, out, `test_checks_total{status="INCONSISTENT"} 4`)
	assert.Contains(t, out, `test_checks_total{status="CONSISTENT"} 1`)
	assert.Contains(t, out, "test_check_duration_seconds_count 5")
}

func TestWriteTextfileError(t *testing.T) {
	r := New("test")
	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "euf.prom"))
	assert.Error(t, err)
}

func TestCollectStatistics(t *testing.T) {
	r := New("test")
	euf.New().CollectStatistics(r)
	families, err := r.Registry().Gather()
	require.NoError(t, err)
	nb := -1
	for _, f := range families {
		if f.GetName() == "test_statistic_total" {
			nb = len(f.GetMetric())
		}
	}
	assert.Equal(t, 6, nb)
}
