package stations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseSnapshotBareArray(t *testing.T) {
	data := []byte(`[
		{"站点名称": "凤凰山", "唯一编码": "440100001", "经度": 113.45, "纬度": 23.18, "城市名称": "广州", "站点类型ID": 2},
		{"站点名称": "天河体育中心", "唯一编码": "440100002", "城市名称": "广州"}
	]`)

	records, err := ParseSnapshot(data)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "凤凰山", records[0].Name)
	assert.Equal(t, "440100001", records[0].UniqueCode)
	assert.Equal(t, "广州", records[0].CityName)
	assert.Equal(t, "天河体育中心", records[1].Name)
}

func TestParseSnapshotResultsEnvelope(t *testing.T) {
	data := []byte(`{"results": [{"站点名称": "黄埔", "唯一编码": "440100010", "城市名称": "广州"}]}`)

	records, err := ParseSnapshot(data)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "黄埔", records[0].Name)
}

func TestParseSnapshotUnrecognizedShape(t *testing.T) {
	_, err := ParseSnapshot([]byte(`{"stations": []}`))
	assert.Error(t, err)

	_, err = ParseSnapshot([]byte(`"just a string"`))
	assert.Error(t, err)
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	records, err := LoadSnapshot(filepath.Join(t.TempDir(), "absent.json"), zap.NewNop())
	assert.NoError(t, err)
	assert.Nil(t, records)
}

func TestLoadSnapshotReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations.json")
	content := `[{"站点名称": "凤凰山", "唯一编码": "440100001", "城市名称": "广州"}]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, err := LoadSnapshot(path, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "凤凰山", records[0].Name)
}

func TestLoadSnapshotMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	_, err := LoadSnapshot(path, zap.NewNop())
	assert.Error(t, err)
}
