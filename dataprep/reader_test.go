package dataprep

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const readerSpeed = `Deception wind_speed
1948   5.1   6.2     -   7.0   8.1   9.9  10.0  11.1   9.5   8.0   7.1   6.0
1949   4.0     -     -     -     -     -     -     -     -     -     -     -
1950   3.3   3.4
`

const readerDir = `Deception wind_direction
1948   270   280     -   300   310   320   330   340   350   360    10    20
1950   180   190
`

func Test_ReadREADER(t *testing.T) {
	tab, err := ReadREADER(strings.NewReader(readerSpeed), "wspd")
	require.NoError(t, err)

	assert.Equal(t, []int{1948, 1949, 1950}, tab.Years)
	assert.Equal(t, 5.1, tab.At(1948, time.January))
	assert.True(t, math.IsNaN(tab.At(1948, time.March)))
	assert.Equal(t, 6.0, tab.At(1948, time.December))
	assert.Equal(t, 4.0, tab.At(1949, time.January))
	assert.True(t, math.IsNaN(tab.At(1949, time.February)))

	// short rows leave the remaining months missing
	assert.Equal(t, 3.4, tab.At(1950, time.February))
	assert.True(t, math.IsNaN(tab.At(1950, time.March)))
}

func Test_ReadREADER_Errors(t *testing.T) {
	_, err := ReadREADER(strings.NewReader("title\nxx 1 2\n"), "bad")
	assert.Error(t, err)

	_, err = ReadREADER(strings.NewReader("title\n1990 1 a\n"), "bad")
	assert.Error(t, err)

	_, err = ReadREADER(strings.NewReader("title\n1990 1 2 3 4 5 6 7 8 9 10 11 12 13\n"), "bad")
	assert.Error(t, err)
}

func Test_Fetcher_Cache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if strings.HasSuffix(r.URL.Path, "missing.txt") {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, readerSpeed)
	}))
	defer srv.Close()

	cache := filepath.Join(t.TempDir(), "cache")
	f := &Fetcher{Client: srv.Client(), CacheDir: cache}
	src := srv.URL + "/surface/Deception.All.wind_speed.txt"

	for i := 0; i < 2; i++ {
		r, err := f.Open(context.Background(), src)
		require.NoError(t, err)
		b, err := io.ReadAll(r)
		r.Close()
		require.NoError(t, err)
		assert.Equal(t, readerSpeed, string(b))
	}
	// second read comes from the cache
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	_, err := os.Stat(filepath.Join(cache, "Deception.All.wind_speed.txt"))
	assert.NoError(t, err)

	_, err = f.Open(context.Background(), srv.URL+"/missing.txt")
	assert.Error(t, err)
}

func Test_Fetcher_LocalFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "local.txt")
	require.NoError(t, os.WriteFile(p, []byte("abc"), 0o644))

	f := &Fetcher{}
	r, err := f.Open(context.Background(), p)
	require.NoError(t, err)
	defer r.Close()
	b, _ := io.ReadAll(r)
	assert.Equal(t, "abc", string(b))

	_, err = f.Open(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func Test_READERSource(t *testing.T) {
	assert.Equal(t,
		"https://example.org/surface/Deception.All.wind_speed.txt",
		READERSource("https://example.org/surface/", "Deception", WindVariables[0]))
	assert.Equal(t,
		filepath.Join("data", "Faraday.All.wind_direction.txt"),
		READERSource("data", "Faraday", WindVariables[1]))
}

func Test_LoadREADERSet(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Deception.All.wind_speed.txt"), []byte(readerSpeed), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Deception.All.wind_direction.txt"), []byte(readerDir), 0o644))

	f, err := LoadREADERSet(context.Background(), &Fetcher{}, dir, "Deception", WindVariables)
	require.NoError(t, err)

	assert.Equal(t, []string{"wspd", "wdir"}, f.Columns)
	assert.Equal(t, date(1948, 1, 1, 0), f.Time[0])
	assert.Equal(t, 5.1, f.Column("wspd")[0])
	assert.Equal(t, 270.0, f.Column("wdir")[0])

	// March 1948 is missing in both files
	for _, tm := range f.Time {
		assert.False(t, tm.Equal(date(1948, 3, 1, 0)))
	}
	// January 1949 has speed only
	i := indexOf(f.Time, date(1949, 1, 1, 0))
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, 4.0, f.Column("wspd")[i])
	assert.True(t, math.IsNaN(f.Column("wdir")[i]))

	_, err = LoadREADERSet(context.Background(), &Fetcher{}, dir, "Nowhere", WindVariables)
	assert.Error(t, err)
}

func indexOf(ts []time.Time, t time.Time) int {
	for i, x := range ts {
		if x.Equal(t) {
			return i
		}
	}
	return -1
}
