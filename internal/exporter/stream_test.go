package exporter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVWriter_CreateStreamWriter(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    []byte
	}{
		{
			name:    "create stream with headers",
			headers: []string{"order_id", "date", "total_price"},
			want:    append(append([]byte{}, utf8BOM...), []byte("order_id,date,total_price\n")...),
		},
		{
			name:    "create stream without headers",
			headers: []string{},
			want:    utf8BOM,
		},
		{
			name:    "create stream with nil headers",
			headers: nil,
			want:    utf8BOM,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			writer := NewCSVWriter(tempDir, nil)

			stream, err := writer.CreateStreamWriter("stream.csv", tt.headers)
			require.NoError(t, err)
			require.NoError(t, stream.Close())

			content, err := os.ReadFile(filepath.Join(tempDir, "stream.csv"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, content)
		})
	}
}

func TestStreamWriter_WriteRecord(t *testing.T) {
	tempDir := t.TempDir()
	writer := NewCSVWriter(tempDir, nil)

	stream, err := writer.CreateStreamWriter("orders.csv", []string{"order_id", "category"})
	require.NoError(t, err)

	require.NoError(t, stream.WriteRecord([]string{"A001", "Electronics"}))
	require.NoError(t, stream.WriteRecord([]string{"A002", "Home, Garden"}))
	assert.Equal(t, 2, stream.Rows())
	require.NoError(t, stream.Close())

	assert.Equal(t, [][]string{
		{"order_id", "category"},
		{"A001", "Electronics"},
		{"A002", "Home, Garden"},
	}, readCSV(t, filepath.Join(tempDir, "orders.csv")))
}

func TestStreamWriter_LargeDataset(t *testing.T) {
	tempDir := t.TempDir()
	writer := NewCSVWriter(tempDir, nil)

	const rows = 10000
	stream, err := writer.CreateStreamWriter("large.csv", []string{"order_id", "total_price"})
	require.NoError(t, err)
	for i := 0; i < rows; i++ {
		require.NoError(t, stream.WriteRecord([]string{fmt.Sprintf("O%05d", i), strconv.Itoa(i)}))
	}
	require.NoError(t, stream.Close())

	records := readCSV(t, filepath.Join(tempDir, "large.csv"))
	assert.Len(t, records, rows+1)
	assert.Equal(t, []string{"O09999", "9999"}, records[rows])
}

func TestStreamWriter_ConcurrentStreams(t *testing.T) {
	tempDir := t.TempDir()
	writer := NewCSVWriter(tempDir, nil)

	const streams = 8
	var wg sync.WaitGroup
	errs := make(chan error, streams)

	for i := 0; i < streams; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			stream, err := writer.CreateStreamWriter(fmt.Sprintf("part_%d.csv", id), []string{"n"})
			if err != nil {
				errs <- err
				return
			}
			for j := 0; j < 100; j++ {
				if err := stream.WriteRecord([]string{strconv.Itoa(j)}); err != nil {
					errs <- err
					return
				}
			}
			errs <- stream.Close()
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	for i := 0; i < streams; i++ {
		content, err := os.ReadFile(filepath.Join(tempDir, fmt.Sprintf("part_%d.csv", i)))
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(content, utf8BOM))
		assert.Len(t, readCSV(t, filepath.Join(tempDir, fmt.Sprintf("part_%d.csv", i))), 101)
	}
}
